package sfx

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

const testSampleRate = 1000.0

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// testClip is a constant-valued mono clip.
func testClip(t *testing.T, frames int, rate, value float64) *Clip {
	t.Helper()

	samples := make([]float64, frames)
	for i := range samples {
		samples[i] = value
	}

	c, err := NewClip("test", rate, 1, samples)
	if err != nil {
		t.Fatalf("NewClip() error = %v", err)
	}
	return c
}

func testPool(clock Clock, opts ...Option) *Pool {
	base := []Option{
		WithSampleRate(testSampleRate),
		WithClock(clock),
		WithLogger(quietLogger()),
		WithInitialVoices(1),
		WithMaxVoices(4),
	}
	return NewPool(append(base, opts...)...)
}

func requireInvariants(t *testing.T, p *Pool) {
	t.Helper()
	if err := p.checkInvariants(); err != nil {
		t.Fatal(err)
	}
}

// stubModule is a configurable module for chain and voice tests. Its
// processor adds offset to every sample and records its kind in trace.
type stubModule struct {
	Base

	kind    string
	caps    Capabilities
	tail    float64
	offset  float64
	initErr error
	trace   *[]string

	inits int
}

func newStub(kind string, caps Capabilities) *stubModule {
	m := &stubModule{kind: kind, caps: caps}
	m.SetEnabled(true)
	return m
}

func (m *stubModule) Kind() string               { return m.kind }
func (m *stubModule) DisplayName() string        { return m.kind }
func (m *stubModule) Capabilities() Capabilities { return m.caps }
func (m *stubModule) TailTime() float64          { return m.tail }

func (m *stubModule) Init(vc *VoiceContext) (Processor, error) {
	m.inits++
	if m.initErr != nil {
		return nil, m.initErr
	}
	if !m.caps.Process {
		return nil, nil
	}
	return &stubProcessor{m: m}, nil
}

type stubProcessor struct {
	m *stubModule
}

func (p *stubProcessor) Process(block []float64, channels int) {
	if p.m.trace != nil {
		*p.m.trace = append(*p.m.trace, p.m.kind)
	}
	for i := range block {
		block[i] += p.m.offset
	}
}
