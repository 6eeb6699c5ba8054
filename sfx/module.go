package sfx

import (
	"math/rand"
	"sync/atomic"
)

// Capabilities declares which parts of the module contract a kind implements.
type Capabilities struct {
	// Init is true when Init configures the voice or returns runtime state.
	Init bool
	// Process is true when the module runs on every audio block.
	Process bool
}

// Module is one configured effect in a SoundDefinition.
//
// Implementations hold configuration only and may be shared by many voices.
// Init is called from the control context at most once per play session,
// before any processing, and only when the module is enabled and declares
// Capabilities.Init. The returned Processor is owned by that one session.
type Module interface {
	Kind() string
	DisplayName() string
	Capabilities() Capabilities

	// Enabled is re-read by the render path on every block.
	Enabled() bool
	SetEnabled(enabled bool)

	// TailTime is the decay time in seconds the module needs after the clip
	// ends.
	TailTime() float64

	// Init prepares one voice session. Init-only modules adjust vc and
	// return a nil Processor.
	Init(vc *VoiceContext) (Processor, error)
}

// Processor is the per-voice runtime state of a module. Process runs in the
// render context, in place, on interleaved samples.
type Processor interface {
	Process(block []float64, channels int)
}

// Base carries the enabled flag shared by all module kinds. The flag is an
// atomic so the authoring layer can toggle it while voices render.
type Base struct {
	enabled atomic.Bool
}

// Enabled reports whether the module should run.
func (b *Base) Enabled() bool { return b.enabled.Load() }

// SetEnabled toggles the module.
func (b *Base) SetEnabled(enabled bool) { b.enabled.Store(enabled) }

// Rolloff selects how distance attenuates a spatialised voice.
type Rolloff int

const (
	RolloffLogarithmic Rolloff = iota
	RolloffLinear
)

// String returns the rolloff name used in sound banks.
func (r Rolloff) String() string {
	switch r {
	case RolloffLinear:
		return "linear"
	default:
		return "logarithmic"
	}
}

// ParseRolloff maps a bank string to a Rolloff; unknown names are logarithmic.
func ParseRolloff(s string) Rolloff {
	if s == "linear" {
		return RolloffLinear
	}
	return RolloffLogarithmic
}

// SpatialSettings describes how a voice is attenuated by listener distance.
type SpatialSettings struct {
	// Blend is 0 for a flat 2D voice and 1 for fully distance-attenuated.
	Blend       float64
	MinDistance float64
	MaxDistance float64
	Rolloff     Rolloff
}

// VoiceContext is what a module sees of the voice it is being initialised
// for. It is reset to unity pitch, unity volume and no spatialisation before
// the first module runs.
type VoiceContext struct {
	SampleRate float64
	Slot       int

	Pitch   float64
	Volume  float64
	Spatial SpatialSettings

	// Rand belongs to the control context. Modules that need randomness at
	// render time must seed their own source from it.
	Rand *rand.Rand
}

func (vc *VoiceContext) reset() {
	vc.Pitch = 1
	vc.Volume = 1
	vc.Spatial = DefaultSpatialSettings()
	vc.Spatial.Blend = 0
}
