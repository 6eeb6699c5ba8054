package effects

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-sfx/dsp/core"
)

const (
	defaultGranularGrainSeconds  = 0.05
	defaultGranularGrainCount    = 8
	defaultGranularPitchVariance = 0.1
	defaultGranularBufferSeconds = 0.5
	defaultGranularFeedback      = 0.3
	defaultGranularMix           = 0.5
	defaultGranularSeed          = 1

	minGranularGrainSeconds  = 0.01
	maxGranularGrainSeconds  = 0.2
	minGranularGrainCount    = 1
	maxGranularGrainCount    = 32
	minGranularBufferSeconds = 0.1
	maxGranularBufferSeconds = 2.0
	maxGranularFeedback      = 0.9

	granularTailFeedbackScale = 5.0
)

// GranularParams holds the granular reverb controls.
type GranularParams struct {
	// GrainSeconds is the length of each grain, in [0.01, 0.2].
	GrainSeconds float64
	// GrainCount is the size of the grain pool, in [1, 32].
	GrainCount int
	// PitchVariation scales the random per-grain rate offset, in [0, 1].
	PitchVariation float64
	// BufferSeconds is how far back grains can read, in [0.1, 2].
	BufferSeconds float64
	// Feedback is the wet signal fed back into the record buffer, in [0, 0.9].
	Feedback float64
	// Mix is the dry/wet balance, in [0, 1].
	Mix float64
}

// DefaultGranularParams returns a short, lightly pitched grain cloud.
func DefaultGranularParams() GranularParams {
	return GranularParams{
		GrainSeconds:   defaultGranularGrainSeconds,
		GrainCount:     defaultGranularGrainCount,
		PitchVariation: defaultGranularPitchVariance,
		BufferSeconds:  defaultGranularBufferSeconds,
		Feedback:       defaultGranularFeedback,
		Mix:            defaultGranularMix,
	}
}

// Validate reports the first parameter outside its range.
//
//nolint:cyclop
func (p GranularParams) Validate() error {
	if p.GrainSeconds < minGranularGrainSeconds || p.GrainSeconds > maxGranularGrainSeconds ||
		math.IsNaN(p.GrainSeconds) {
		return fmt.Errorf("granular grain seconds must be in [%g, %g]: %f",
			minGranularGrainSeconds, maxGranularGrainSeconds, p.GrainSeconds)
	}

	if p.GrainCount < minGranularGrainCount || p.GrainCount > maxGranularGrainCount {
		return fmt.Errorf("granular grain count must be in [%d, %d]: %d",
			minGranularGrainCount, maxGranularGrainCount, p.GrainCount)
	}

	if p.PitchVariation < 0 || p.PitchVariation > 1 || math.IsNaN(p.PitchVariation) {
		return fmt.Errorf("granular pitch variation must be in [0, 1]: %f", p.PitchVariation)
	}

	if p.BufferSeconds < minGranularBufferSeconds || p.BufferSeconds > maxGranularBufferSeconds ||
		math.IsNaN(p.BufferSeconds) {
		return fmt.Errorf("granular buffer seconds must be in [%g, %g]: %f",
			minGranularBufferSeconds, maxGranularBufferSeconds, p.BufferSeconds)
	}

	if p.Feedback < 0 || p.Feedback > maxGranularFeedback || math.IsNaN(p.Feedback) {
		return fmt.Errorf("granular feedback must be in [0, %g]: %f", maxGranularFeedback, p.Feedback)
	}

	if p.Mix < 0 || p.Mix > 1 || math.IsNaN(p.Mix) {
		return fmt.Errorf("granular mix must be in [0, 1]: %f", p.Mix)
	}

	return nil
}

// TailSeconds is how long re-injected grains stay audible after the input stops.
func (p GranularParams) TailSeconds() float64 {
	return p.BufferSeconds + p.BufferSeconds*p.Feedback*granularTailFeedbackScale
}

type granularGrain struct {
	active    bool
	readPos   float64
	rate      float64
	remaining int
	length    int
}

// GranularReverb is a granular delay/reverb. Input is downmixed into a mono
// circular record buffer; a fixed pool of grains reads short, individually
// pitched, triangle-enveloped fragments from behind the write cursor, and
// the summed grains are fed back into the buffer to build a decaying tail.
//
// The wet signal is mono and added equally to every channel. All state is
// allocated at construction; ProcessInterleaved never allocates. Not safe
// for concurrent use.
type GranularReverb struct {
	sampleRate float64
	params     GranularParams

	buffer []float64
	write  int

	grains    []granularGrain
	nextGrain int

	grainSamples    int
	intervalSamples int
	timer           int
	norm            float64

	rng *rand.Rand
}

// NewGranularReverb allocates a granular reverb. rng supplies grain offsets
// and pitch jitter; nil uses a fixed default seed.
func NewGranularReverb(sampleRate float64, params GranularParams, rng *rand.Rand) (*GranularReverb, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("granular sample rate must be > 0: %f", sampleRate)
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(defaultGranularSeed))
	}

	size := int(math.Ceil(params.BufferSeconds * sampleRate))
	if size < 1 {
		size = 1
	}

	grainSamples := int(math.Ceil(params.GrainSeconds * sampleRate))
	if grainSamples < 1 {
		grainSamples = 1
	}

	interval := int(math.Ceil(params.GrainSeconds / float64(params.GrainCount) * sampleRate))
	if interval < 1 {
		interval = 1
	}

	return &GranularReverb{
		sampleRate:      sampleRate,
		params:          params,
		buffer:          make([]float64, size),
		grains:          make([]granularGrain, params.GrainCount),
		grainSamples:    grainSamples,
		intervalSamples: interval,
		norm:            math.Max(1, float64(params.GrainCount)*0.5),
		rng:             rng,
	}, nil
}

// SampleRate returns the sample rate the record buffer was sized for.
func (g *GranularReverb) SampleRate() float64 { return g.sampleRate }

// Params returns the parameters frozen at construction.
func (g *GranularReverb) Params() GranularParams { return g.params }

// BufferLen returns the record buffer length in samples.
func (g *GranularReverb) BufferLen() int { return len(g.buffer) }

// GrainSamples returns the grain length in samples.
func (g *GranularReverb) GrainSamples() int { return g.grainSamples }

// ActiveGrains returns the number of grains currently sounding.
func (g *GranularReverb) ActiveGrains() int {
	n := 0
	for i := range g.grains {
		if g.grains[i].active {
			n++
		}
	}
	return n
}

// TailSeconds returns the decay tail length implied by buffer and feedback.
func (g *GranularReverb) TailSeconds() float64 { return g.params.TailSeconds() }

// Reset clears the record buffer and deactivates every grain. The random
// source is left where it is.
func (g *GranularReverb) Reset() {
	core.Zero(g.buffer)
	g.write = 0
	g.timer = 0
	g.nextGrain = 0
	for i := range g.grains {
		g.grains[i] = granularGrain{}
	}
}

// ProcessInterleaved applies the effect in place to interleaved frames.
// A trailing partial frame is processed over the channels it has.
func (g *GranularReverb) ProcessInterleaved(block []float64, channels int) {
	if channels <= 0 || len(g.buffer) == 0 || len(g.grains) == 0 {
		return
	}

	n := len(block)
	dryGain := 1 - g.params.Mix
	wetGain := g.params.Mix

	for i := 0; i < n; i += channels {
		frame := channels
		if i+frame > n {
			frame = n - i
		}

		var input float64
		for c := 0; c < frame; c++ {
			input += block[i+c]
		}
		input /= float64(frame)

		wet := g.processSample(input)

		for c := 0; c < frame; c++ {
			block[i+c] = block[i+c]*dryGain + wet*wetGain
		}
	}
}

// ProcessSample records one mono input sample and returns the wet output.
func (g *GranularReverb) ProcessSample(input float64) float64 {
	if len(g.buffer) == 0 || len(g.grains) == 0 {
		return 0
	}
	return g.processSample(input)
}

func (g *GranularReverb) processSample(input float64) float64 {
	size := len(g.buffer)

	g.buffer[g.write] = input
	g.write++
	if g.write >= size {
		g.write = 0
	}

	g.timer++
	if g.timer >= g.intervalSamples {
		g.timer = 0
		g.trigger()
	}

	var wet float64
	for i := range g.grains {
		grain := &g.grains[i]
		if !grain.active {
			continue
		}

		progress := 1 - float64(grain.remaining)/float64(grain.length)
		env := (1 - progress) * 2
		if progress < 0.5 {
			env = progress * 2
		}

		wet += g.readLinear(grain.readPos) * env

		grain.readPos += grain.rate
		if grain.readPos >= float64(size) {
			grain.readPos -= float64(size)
		}

		grain.remaining--
		if grain.remaining <= 0 {
			grain.active = false
		}
	}

	wet /= g.norm

	last := core.FloorMod(g.write-1, size)
	g.buffer[last] += wet * g.params.Feedback

	return wet
}

// trigger starts a grain in the first free slot scanning from the rotating
// pointer; when every slot is busy the next slot in rotation is recycled.
func (g *GranularReverb) trigger() {
	count := len(g.grains)

	slot := -1
	for i := 0; i < count; i++ {
		idx := (g.nextGrain + i) % count
		if !g.grains[idx].active {
			slot = idx
			break
		}
	}

	if slot >= 0 {
		g.nextGrain = (slot + 1) % count
	} else {
		g.nextGrain = (g.nextGrain + 1) % count
		slot = g.nextGrain
	}

	rate := 1 + (g.rng.Float64()*2-1)*g.params.PitchVariation
	g.grains[slot] = granularGrain{
		active:    true,
		readPos:   float64(core.FloorMod(g.write-g.randomOffset(), len(g.buffer))),
		rate:      rate,
		remaining: g.grainSamples,
		length:    g.grainSamples,
	}
}

// randomOffset picks a distance behind the write cursor in
// [grainSamples, size-grainSamples). A grain longer than half the buffer
// collapses the range to grainSamples.
func (g *GranularReverb) randomOffset() int {
	lo := g.grainSamples
	hi := len(g.buffer) - g.grainSamples
	if hi <= lo {
		return lo
	}
	return lo + g.rng.Intn(hi-lo)
}

func (g *GranularReverb) readLinear(pos float64) float64 {
	size := len(g.buffer)

	base := math.Floor(pos)
	frac := pos - base

	i0 := core.FloorMod(int(base), size)
	i1 := i0 + 1
	if i1 >= size {
		i1 = 0
	}

	return g.buffer[i0]*(1-frac) + g.buffer[i1]*frac
}
