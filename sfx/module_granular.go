package sfx

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/cwbudde/algo-sfx/dsp/effects"
)

// KindGranular is the registry name of GranularModule.
const KindGranular = "granular"

// GranularModule configures a granular delay/reverb.
type GranularModule struct {
	Base

	mu     sync.RWMutex
	params effects.GranularParams
}

// NewGranularModule returns an enabled granular module.
func NewGranularModule(params effects.GranularParams) (*GranularModule, error) {
	m := &GranularModule{}
	if err := m.SetParams(params); err != nil {
		return nil, err
	}
	m.SetEnabled(true)
	return m, nil
}

func (m *GranularModule) Kind() string        { return KindGranular }
func (m *GranularModule) DisplayName() string { return "Granular Reverb" }

func (m *GranularModule) Capabilities() Capabilities {
	return Capabilities{Init: true, Process: true}
}

// Params returns the current configuration.
func (m *GranularModule) Params() effects.GranularParams {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.params
}

// SetParams replaces the configuration for future sessions.
func (m *GranularModule) SetParams(params effects.GranularParams) error {
	if err := params.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParam, err)
	}

	m.mu.Lock()
	m.params = params
	m.mu.Unlock()
	return nil
}

// TailTime is bufferLength + bufferLength*feedback*5 seconds.
func (m *GranularModule) TailTime() float64 {
	return m.Params().TailSeconds()
}

func (m *GranularModule) Init(vc *VoiceContext) (Processor, error) {
	var seed int64 = 1
	if vc.Rand != nil {
		seed = vc.Rand.Int63()
	}

	fx, err := effects.NewGranularReverb(vc.SampleRate, m.Params(), rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, fmt.Errorf("sfx: init granular: %w", err)
	}
	return &granularProcessor{fx: fx}, nil
}

type granularProcessor struct {
	fx *effects.GranularReverb
}

func (p *granularProcessor) Process(block []float64, channels int) {
	if p == nil || p.fx == nil {
		return
	}
	p.fx.ProcessInterleaved(block, channels)
}
