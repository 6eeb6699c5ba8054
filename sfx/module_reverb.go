package sfx

import (
	"fmt"
	"sync"

	"github.com/cwbudde/algo-sfx/dsp/effects"
)

// KindReverb is the registry name of ReverbModule.
const KindReverb = "reverb"

// ReverbModule configures a stereo Freeverb-style reverb.
type ReverbModule struct {
	Base

	mu     sync.RWMutex
	params effects.ReverbParams
}

// NewReverbModule returns an enabled reverb module.
func NewReverbModule(params effects.ReverbParams) (*ReverbModule, error) {
	m := &ReverbModule{}
	if err := m.SetParams(params); err != nil {
		return nil, err
	}
	m.SetEnabled(true)
	return m, nil
}

func (m *ReverbModule) Kind() string        { return KindReverb }
func (m *ReverbModule) DisplayName() string { return "Reverb" }

func (m *ReverbModule) Capabilities() Capabilities {
	return Capabilities{Init: true, Process: true}
}

// Params returns the current configuration.
func (m *ReverbModule) Params() effects.ReverbParams {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.params
}

// SetParams replaces the configuration. Voices already playing keep the
// values they were initialised with.
func (m *ReverbModule) SetParams(params effects.ReverbParams) error {
	if err := params.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParam, err)
	}

	m.mu.Lock()
	m.params = params
	m.mu.Unlock()
	return nil
}

// TailTime is 1 + 4*roomSize seconds.
func (m *ReverbModule) TailTime() float64 {
	return m.Params().TailSeconds()
}

func (m *ReverbModule) Init(vc *VoiceContext) (Processor, error) {
	fx, err := effects.NewReverb(vc.SampleRate, m.Params())
	if err != nil {
		return nil, fmt.Errorf("sfx: init reverb: %w", err)
	}
	return &reverbProcessor{fx: fx}, nil
}

type reverbProcessor struct {
	fx *effects.Reverb
}

func (p *reverbProcessor) Process(block []float64, channels int) {
	if p == nil || p.fx == nil {
		return
	}
	p.fx.ProcessInterleaved(block, channels)
}
