package sfx

import (
	"fmt"
	"sync"
)

// KindRandomize is the registry name of RandomizeModule.
const KindRandomize = "randomize"

// RandomizeParams bounds the per-play volume and pitch variation.
type RandomizeParams struct {
	VolumeMin float64 // [0, 1]
	VolumeMax float64 // [0, 1]
	PitchMin  float64 // [0.5, 2]
	PitchMax  float64 // [0.5, 2]
}

// DefaultRandomizeParams varies volume by 20% and pitch by ±5%.
func DefaultRandomizeParams() RandomizeParams {
	return RandomizeParams{VolumeMin: 0.8, VolumeMax: 1, PitchMin: 0.95, PitchMax: 1.05}
}

func (p RandomizeParams) validate() error {
	for _, v := range []float64{p.VolumeMin, p.VolumeMax} {
		if v < 0 || v > 1 || v != v {
			return fmt.Errorf("%w: randomize volume must be in [0, 1]: %f", ErrInvalidParam, v)
		}
	}

	for _, v := range []float64{p.PitchMin, p.PitchMax} {
		if v < 0.5 || v > 2 || v != v {
			return fmt.Errorf("%w: randomize pitch must be in [0.5, 2]: %f", ErrInvalidParam, v)
		}
	}

	return nil
}

// RandomizeModule picks a random volume and pitch for each play.
type RandomizeModule struct {
	Base

	mu     sync.RWMutex
	params RandomizeParams
}

// NewRandomizeModule returns an enabled randomize module.
func NewRandomizeModule(params RandomizeParams) (*RandomizeModule, error) {
	m := &RandomizeModule{}
	if err := m.SetParams(params); err != nil {
		return nil, err
	}
	m.SetEnabled(true)
	return m, nil
}

func (m *RandomizeModule) Kind() string               { return KindRandomize }
func (m *RandomizeModule) DisplayName() string        { return "Randomize" }
func (m *RandomizeModule) Capabilities() Capabilities { return Capabilities{Init: true} }
func (m *RandomizeModule) TailTime() float64          { return 0 }

// Params returns the current configuration.
func (m *RandomizeModule) Params() RandomizeParams {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.params
}

// SetParams replaces the configuration for future sessions.
func (m *RandomizeModule) SetParams(params RandomizeParams) error {
	if err := params.validate(); err != nil {
		return err
	}

	m.mu.Lock()
	m.params = params
	m.mu.Unlock()
	return nil
}

func (m *RandomizeModule) Init(vc *VoiceContext) (Processor, error) {
	p := m.Params()
	if vc.Rand == nil {
		return nil, nil
	}
	vc.Volume = p.VolumeMin + vc.Rand.Float64()*(p.VolumeMax-p.VolumeMin)
	vc.Pitch = p.PitchMin + vc.Rand.Float64()*(p.PitchMax-p.PitchMin)
	return nil, nil
}
