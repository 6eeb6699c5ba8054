package sfx

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cwbudde/algo-sfx/dsp/effects"
)

// Factory builds a configured module from bank parameters.
type Factory func(p Params) (Module, error)

// Registry maps module kinds to their factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register makes kind available to sound banks. Kinds are unique per
// registry; registering one twice fails with ErrDuplicateModule.
func (r *Registry) Register(kind string, factory Factory) error {
	switch {
	case kind == "":
		return fmt.Errorf("sfx: register module: %w: empty kind", ErrInvalidParam)
	case factory == nil:
		return fmt.Errorf("sfx: register module %q: %w: no factory", kind, ErrInvalidParam)
	}

	if _, taken := r.factories[kind]; taken {
		return fmt.Errorf("sfx: register module %q: %w", kind, ErrDuplicateModule)
	}

	r.factories[kind] = factory
	return nil
}

// MustRegister is Register for built-in kinds; it panics on error.
func (r *Registry) MustRegister(kind string, factory Factory) {
	if err := r.Register(kind, factory); err != nil {
		panic(err)
	}
}

// Lookup returns the factory registered for kind.
func (r *Registry) Lookup(kind string) (Factory, bool) {
	f, ok := r.factories[kind]
	return f, ok
}

// Kinds returns the registered module kinds in sorted order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// New builds a module from p and applies its enabled flag.
func (r *Registry) New(p Params) (Module, error) {
	factory, ok := r.Lookup(p.Kind)
	if !ok {
		return nil, fmt.Errorf("%w %q (have %s)", ErrUnknownModule, p.Kind, strings.Join(r.Kinds(), ", "))
	}

	m, err := factory(p)
	if err != nil {
		return nil, fmt.Errorf("sfx: %s: %w", p.Kind, err)
	}

	m.SetEnabled(p.Enabled)
	return m, nil
}

// DefaultRegistry knows every built-in module kind.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(KindReverb, newReverbFromParams)
	r.MustRegister(KindGranular, newGranularFromParams)
	r.MustRegister(KindRandomize, newRandomizeFromParams)
	r.MustRegister(KindSpatializer, newSpatializerFromParams)
	return r
}

func newReverbFromParams(p Params) (Module, error) {
	d := effects.DefaultReverbParams()
	m, err := NewReverbModule(effects.ReverbParams{
		RoomSize: p.GetNum("roomSize", d.RoomSize),
		Damping:  p.GetNum("damping", d.Damping),
		Width:    p.GetNum("width", d.Width),
		Mix:      p.GetNum("mix", d.Mix),
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func newGranularFromParams(p Params) (Module, error) {
	d := effects.DefaultGranularParams()
	m, err := NewGranularModule(effects.GranularParams{
		GrainSeconds:   p.GetNum("grainSize", d.GrainSeconds),
		GrainCount:     p.GetInt("grainCount", d.GrainCount),
		PitchVariation: p.GetNum("pitchVariation", d.PitchVariation),
		BufferSeconds:  p.GetNum("bufferLength", d.BufferSeconds),
		Feedback:       p.GetNum("feedback", d.Feedback),
		Mix:            p.GetNum("mix", d.Mix),
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func newRandomizeFromParams(p Params) (Module, error) {
	d := DefaultRandomizeParams()
	m, err := NewRandomizeModule(RandomizeParams{
		VolumeMin: p.GetNum("volumeMin", d.VolumeMin),
		VolumeMax: p.GetNum("volumeMax", d.VolumeMax),
		PitchMin:  p.GetNum("pitchMin", d.PitchMin),
		PitchMax:  p.GetNum("pitchMax", d.PitchMax),
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func newSpatializerFromParams(p Params) (Module, error) {
	d := DefaultSpatialSettings()
	m, err := NewSpatializerModule(SpatialSettings{
		Blend:       p.GetNum("spatialBlend", d.Blend),
		MinDistance: p.GetNum("minDistance", d.MinDistance),
		MaxDistance: p.GetNum("maxDistance", d.MaxDistance),
		Rolloff:     ParseRolloff(p.GetStr("rolloff", d.Rolloff.String())),
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}
