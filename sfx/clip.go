package sfx

import (
	"fmt"
	"math/rand"
	"time"
)

// Clip is decoded source audio: interleaved samples in [-1, 1].
type Clip struct {
	Name       string
	SampleRate float64
	Channels   int
	Samples    []float64
}

// NewClip validates and wraps decoded samples. Trailing samples that do not
// fill a whole frame are dropped.
func NewClip(name string, sampleRate float64, channels int, samples []float64) (*Clip, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %s: sample rate must be > 0: %f", ErrInvalidClip, name, sampleRate)
	}

	if channels <= 0 {
		return nil, fmt.Errorf("%w: %s: channel count must be > 0: %d", ErrInvalidClip, name, channels)
	}

	frames := len(samples) / channels
	if frames == 0 {
		return nil, fmt.Errorf("%w: %s: no audio frames", ErrInvalidClip, name)
	}

	return &Clip{
		Name:       name,
		SampleRate: sampleRate,
		Channels:   channels,
		Samples:    samples[:frames*channels],
	}, nil
}

// Frames returns the number of sample frames.
func (c *Clip) Frames() int {
	if c == nil || c.Channels <= 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// Duration is the clip length at unity pitch.
func (c *Clip) Duration() time.Duration {
	if c == nil || c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(c.Frames()) / c.SampleRate * float64(time.Second))
}

// SoundDefinition is one playable sound: interchangeable clips, one picked
// at random per play, and the ordered effect modules applied to it. The pool
// never mutates a definition.
type SoundDefinition struct {
	Name    string
	Clips   []*Clip
	Modules []Module
}

// Playable reports whether the definition has at least one usable clip.
func (d *SoundDefinition) Playable() bool {
	if d == nil {
		return false
	}

	for _, c := range d.Clips {
		if c.Frames() > 0 {
			return true
		}
	}
	return false
}

func (d *SoundDefinition) pickClip(rng *rand.Rand) *Clip {
	usable := 0
	for _, c := range d.Clips {
		if c.Frames() > 0 {
			usable++
		}
	}

	if usable == 0 {
		return nil
	}

	n := rng.Intn(usable)
	for _, c := range d.Clips {
		if c.Frames() == 0 {
			continue
		}
		if n == 0 {
			return c
		}
		n--
	}
	return nil
}
