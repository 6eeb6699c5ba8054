package sfx

import (
	"fmt"
	"math"
	"sync"
)

// KindSpatializer is the registry name of SpatializerModule.
const KindSpatializer = "spatializer"

// SpatializerModule turns a voice into a positional one.
type SpatializerModule struct {
	Base

	mu       sync.RWMutex
	settings SpatialSettings
}

const (
	defaultMinDistance = 1.0
	defaultMaxDistance = 500.0
)

// DefaultSpatialSettings is a fully 3D voice with logarithmic rolloff
// between 1 and 500 units.
func DefaultSpatialSettings() SpatialSettings {
	return SpatialSettings{
		Blend:       1,
		MinDistance: defaultMinDistance,
		MaxDistance: defaultMaxDistance,
		Rolloff:     RolloffLogarithmic,
	}
}

// NewSpatializerModule returns an enabled spatializer module.
func NewSpatializerModule(settings SpatialSettings) (*SpatializerModule, error) {
	m := &SpatializerModule{}
	if err := m.SetSettings(settings); err != nil {
		return nil, err
	}
	m.SetEnabled(true)
	return m, nil
}

func (m *SpatializerModule) Kind() string               { return KindSpatializer }
func (m *SpatializerModule) DisplayName() string        { return "Spatializer" }
func (m *SpatializerModule) Capabilities() Capabilities { return Capabilities{Init: true} }
func (m *SpatializerModule) TailTime() float64          { return 0 }

// Settings returns the current configuration.
func (m *SpatializerModule) Settings() SpatialSettings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// SetSettings replaces the configuration for future sessions.
func (m *SpatializerModule) SetSettings(s SpatialSettings) error {
	if s.Blend < 0 || s.Blend > 1 || math.IsNaN(s.Blend) {
		return fmt.Errorf("%w: spatial blend must be in [0, 1]: %f", ErrInvalidParam, s.Blend)
	}

	if s.MinDistance <= 0 || s.MaxDistance < s.MinDistance {
		return fmt.Errorf("%w: spatial distances must satisfy 0 < min <= max: %f, %f",
			ErrInvalidParam, s.MinDistance, s.MaxDistance)
	}

	m.mu.Lock()
	m.settings = s
	m.mu.Unlock()
	return nil
}

func (m *SpatializerModule) Init(vc *VoiceContext) (Processor, error) {
	vc.Spatial = m.Settings()
	return nil, nil
}

// Vec3 is a position in world units.
type Vec3 struct {
	X, Y, Z float64
}

// Distance returns the Euclidean distance between a and b.
func (a Vec3) Distance(b Vec3) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Gain returns the attenuation for a voice at distance d from the listener,
// blended between flat (Blend 0) and fully attenuated (Blend 1).
func (s SpatialSettings) Gain(d float64) float64 {
	if s.Blend <= 0 {
		return 1
	}

	minD := s.MinDistance
	if minD <= 0 {
		minD = defaultMinDistance
	}
	maxD := math.Max(s.MaxDistance, minD)
	d = math.Min(math.Max(d, minD), maxD)

	var g float64
	switch s.Rolloff {
	case RolloffLinear:
		if maxD == minD {
			g = 1
		} else {
			g = 1 - (d-minD)/(maxD-minD)
		}
	default:
		g = minD / d
	}

	return (1 - s.Blend) + s.Blend*g
}
