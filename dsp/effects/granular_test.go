package effects

import (
	"math/rand"
	"testing"

	"github.com/cwbudde/algo-sfx/internal/testutil"
)

func TestNewGranularReverbRejectsInvalidInput(t *testing.T) {
	if _, err := NewGranularReverb(-1, DefaultGranularParams(), nil); err == nil {
		t.Fatal("expected error for negative sample rate")
	}

	mutators := []func(*GranularParams){
		func(p *GranularParams) { p.GrainSeconds = 0.001 },
		func(p *GranularParams) { p.GrainSeconds = 0.5 },
		func(p *GranularParams) { p.GrainCount = 0 },
		func(p *GranularParams) { p.GrainCount = 33 },
		func(p *GranularParams) { p.PitchVariation = 1.5 },
		func(p *GranularParams) { p.BufferSeconds = 0.05 },
		func(p *GranularParams) { p.BufferSeconds = 3 },
		func(p *GranularParams) { p.Feedback = 0.95 },
		func(p *GranularParams) { p.Mix = -0.1 },
	}

	for i, mutate := range mutators {
		p := DefaultGranularParams()
		mutate(&p)

		if _, err := NewGranularReverb(48000, p, nil); err == nil {
			t.Fatalf("case %d: expected error for %+v", i, p)
		}
	}
}

func TestGranularReverbSizing(t *testing.T) {
	p := DefaultGranularParams()
	p.BufferSeconds = 0.25
	p.GrainSeconds = 0.02
	p.GrainCount = 4

	g, err := NewGranularReverb(44100, p, nil)
	if err != nil {
		t.Fatalf("NewGranularReverb() error = %v", err)
	}

	if got, want := g.BufferLen(), 11025; got != want {
		t.Fatalf("BufferLen() = %d, want %d", got, want)
	}

	if got, want := g.GrainSamples(), 882; got != want {
		t.Fatalf("GrainSamples() = %d, want %d", got, want)
	}

	if got, want := g.intervalSamples, 221; got != want {
		t.Fatalf("interval = %d, want %d", got, want)
	}

	if g.ActiveGrains() != 0 {
		t.Fatalf("ActiveGrains() = %d, want 0 after construction", g.ActiveGrains())
	}
}

func TestGranularReverbMixZeroIsTransparent(t *testing.T) {
	p := DefaultGranularParams()
	p.Mix = 0
	p.Feedback = 0.9

	g, err := NewGranularReverb(48000, p, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("NewGranularReverb() error = %v", err)
	}

	input := testutil.DeterministicNoise(9, 0.7, 2*4096)
	got := append([]float64(nil), input...)
	g.ProcessInterleaved(got, 2)

	testutil.RequireSliceNearlyEqual(t, got, input, 0)
}

func TestGranularReverbImpulseStaysInsideBufferWindow(t *testing.T) {
	const sampleRate = 8000

	p := GranularParams{
		GrainSeconds:   0.05,
		GrainCount:     8,
		PitchVariation: 0,
		BufferSeconds:  0.5,
		Feedback:       0,
		Mix:            1,
	}

	g, err := NewGranularReverb(sampleRate, p, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("NewGranularReverb() error = %v", err)
	}

	size := g.BufferLen()
	block := testutil.Impulse(3*size, 0)
	g.ProcessInterleaved(block, 1)

	if testutil.Energy(block[:size]) == 0 {
		t.Fatal("expected grain energy inside the first buffer window")
	}

	// Once the impulse has been overwritten nothing can re-inject it.
	testutil.RequireAllZero(t, block[size:])
}

func TestGranularReverbFeedbackSustainsTail(t *testing.T) {
	const sampleRate = 8000

	p := DefaultGranularParams()
	p.Feedback = 0.9
	p.Mix = 1

	g, err := NewGranularReverb(sampleRate, p, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatalf("NewGranularReverb() error = %v", err)
	}

	size := g.BufferLen()
	block := make([]float64, 4*size)
	copy(block, testutil.DeterministicNoise(2, 0.5, size))
	g.ProcessInterleaved(block, 1)

	testutil.RequireFinite(t, block)

	if testutil.Energy(block[2*size:]) == 0 {
		t.Fatal("expected feedback to keep the tail alive past one buffer length")
	}
}

func TestGranularReverbReadsStayInBounds(t *testing.T) {
	cases := []GranularParams{
		{GrainSeconds: 0.2, GrainCount: 32, PitchVariation: 1, BufferSeconds: 0.1, Feedback: 0.9, Mix: 0.5},
		{GrainSeconds: 0.05, GrainCount: 1, PitchVariation: 1, BufferSeconds: 0.1, Feedback: 0.5, Mix: 1},
		{GrainSeconds: 0.1, GrainCount: 7, PitchVariation: 0.5, BufferSeconds: 0.2, Feedback: 0.3, Mix: 0.7},
		{GrainSeconds: 0.01, GrainCount: 32, PitchVariation: 1, BufferSeconds: 2, Feedback: 0.9, Mix: 1},
	}

	rng := rand.New(rand.NewSource(99))

	for i, p := range cases {
		g, err := NewGranularReverb(8000, p, rand.New(rand.NewSource(int64(i))))
		if err != nil {
			t.Fatalf("case %d: NewGranularReverb() error = %v", i, err)
		}

		size := float64(g.BufferLen())
		for pass := 0; pass < 200; pass++ {
			channels := 1 + rng.Intn(3)
			block := testutil.DeterministicNoise(int64(pass), 1, 1+rng.Intn(700))
			g.ProcessInterleaved(block, channels)

			testutil.RequireFinite(t, block)

			for k := range g.grains {
				pos := g.grains[k].readPos
				if g.grains[k].active && (pos < 0 || pos >= size) {
					t.Fatalf("case %d pass %d: grain %d readPos %v outside [0, %v)", i, pass, k, pos, size)
				}
			}

			if g.write < 0 || g.write >= g.BufferLen() {
				t.Fatalf("case %d pass %d: write cursor %d outside buffer", i, pass, g.write)
			}
		}
	}
}

func TestGranularReverbTriggerRotation(t *testing.T) {
	p := DefaultGranularParams()
	p.GrainCount = 4

	g, err := NewGranularReverb(8000, p, nil)
	if err != nil {
		t.Fatalf("NewGranularReverb() error = %v", err)
	}

	for i := range g.grains {
		g.grains[i].active = true
		g.grains[i].remaining = 1
	}
	g.grains[1].active = false
	g.nextGrain = 2

	g.trigger()

	if !g.grains[1].active || g.grains[1].remaining != g.GrainSamples() {
		t.Fatal("expected the free slot to be used before stealing")
	}

	if g.nextGrain != 2 {
		t.Fatalf("nextGrain = %d, want 2", g.nextGrain)
	}

	g.trigger()

	if g.nextGrain != 3 {
		t.Fatalf("nextGrain = %d after steal, want 3", g.nextGrain)
	}

	if g.grains[3].remaining != g.GrainSamples() {
		t.Fatal("expected slot 3 to be recycled")
	}
}

func TestGranularReverbFreshInstancesAreReproducible(t *testing.T) {
	p := DefaultGranularParams()
	p.PitchVariation = 0.8

	a, _ := NewGranularReverb(16000, p, rand.New(rand.NewSource(17)))
	b, _ := NewGranularReverb(16000, p, rand.New(rand.NewSource(17)))

	input := testutil.DeterministicNoise(4, 0.6, 2*8000)
	outA := append([]float64(nil), input...)
	outB := append([]float64(nil), input...)
	a.ProcessInterleaved(outA, 2)
	b.ProcessInterleaved(outB, 2)

	testutil.RequireSliceNearlyEqual(t, outA, outB, 0)
}

func TestGranularReverbTailSeconds(t *testing.T) {
	p := DefaultGranularParams()
	p.BufferSeconds = 1
	p.Feedback = 0.5

	if got := p.TailSeconds(); got != 3.5 {
		t.Fatalf("TailSeconds() = %v, want 3.5", got)
	}
}
