package effects

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-sfx/dsp/core"
)

const (
	reverbNumCombs     = 8
	reverbNumAllpasses = 4

	// Tuning values calibrated for 44.1 kHz; the right channel is offset by
	// reverbStereoSpread samples before scaling.
	reverbReferenceRate = 44100.0
	reverbStereoSpread  = 23

	reverbCombGain        = 1.0 / reverbNumCombs
	reverbAllpassFeedback = 0.5
	reverbScaleRoom       = 0.28
	reverbOffsetRoom      = 0.7
	reverbScaleDamp       = 0.4
	reverbDenormal        = 1e-18
	reverbDCBlockerPole   = 0.995
	reverbBaseTailSeconds = 1.0
	reverbRoomTailSeconds = 4.0
	defaultReverbRoomSize = 0.5
	defaultReverbDamping  = 0.5
	defaultReverbWidth    = 1.0
	defaultReverbMix      = 0.3
)

var (
	reverbCombTunings    = [reverbNumCombs]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
	reverbAllpassTunings = [reverbNumAllpasses]int{556, 441, 341, 225}
)

// ReverbParams holds the user-facing reverb controls. All values are in [0, 1].
type ReverbParams struct {
	RoomSize float64
	Damping  float64
	Width    float64
	Mix      float64
}

// DefaultReverbParams returns a medium room with a 30% wet mix.
func DefaultReverbParams() ReverbParams {
	return ReverbParams{
		RoomSize: defaultReverbRoomSize,
		Damping:  defaultReverbDamping,
		Width:    defaultReverbWidth,
		Mix:      defaultReverbMix,
	}
}

// Validate reports the first parameter outside [0, 1].
func (p ReverbParams) Validate() error {
	if err := checkUnit("room size", p.RoomSize); err != nil {
		return err
	}

	if err := checkUnit("damping", p.Damping); err != nil {
		return err
	}

	if err := checkUnit("width", p.Width); err != nil {
		return err
	}

	return checkUnit("mix", p.Mix)
}

// TailSeconds is how long the network keeps ringing after the input stops.
func (p ReverbParams) TailSeconds() float64 {
	return reverbBaseTailSeconds + p.RoomSize*reverbRoomTailSeconds
}

func checkUnit(name string, v float64) error {
	if v < 0 || v > 1 || math.IsNaN(v) {
		return fmt.Errorf("reverb %s must be in [0, 1]: %f", name, v)
	}

	return nil
}

type reverbComb struct {
	filterStore float64
	buffer      []float64
	index       int
}

func newReverbComb(size int) reverbComb {
	return reverbComb{buffer: make([]float64, size)}
}

func (c *reverbComb) process(input, feedback, damp1, damp2 float64) float64 {
	output := c.buffer[c.index]

	c.filterStore = output*damp2 + c.filterStore*damp1 + reverbDenormal
	c.filterStore -= reverbDenormal

	c.buffer[c.index] = input + c.filterStore*feedback
	c.index++
	if c.index >= len(c.buffer) {
		c.index = 0
	}
	return output
}

func (c *reverbComb) reset() {
	core.Zero(c.buffer)
	c.index = 0
	c.filterStore = 0
}

type reverbAllpass struct {
	buffer []float64
	index  int
}

func newReverbAllpass(size int) reverbAllpass {
	return reverbAllpass{buffer: make([]float64, size)}
}

func (a *reverbAllpass) process(input float64) float64 {
	bufOut := a.buffer[a.index]
	output := bufOut - input
	a.buffer[a.index] = input + bufOut*reverbAllpassFeedback
	a.index++
	if a.index >= len(a.buffer) {
		a.index = 0
	}
	return output
}

func (a *reverbAllpass) reset() {
	core.Zero(a.buffer)
	a.index = 0
}

// dcBlocker is a one-pole high-pass: y = x - x[n-1] + R*y[n-1].
type dcBlocker struct {
	x1, y1 float64
}

func (d *dcBlocker) process(x float64) float64 {
	y := x - d.x1 + reverbDCBlockerPole*d.y1
	d.x1 = x
	d.y1 = y
	return y
}

// reverbChannel is one side of the stereo network.
type reverbChannel struct {
	combs   [reverbNumCombs]reverbComb
	allpass [reverbNumAllpasses]reverbAllpass
	dc      dcBlocker
}

func newReverbChannel(scale float64, spread int) reverbChannel {
	var ch reverbChannel
	for i, tuning := range reverbCombTunings {
		ch.combs[i] = newReverbComb(scaledLength(tuning+spread, scale))
	}
	for i, tuning := range reverbAllpassTunings {
		ch.allpass[i] = newReverbAllpass(scaledLength(tuning+spread, scale))
	}
	return ch
}

func (ch *reverbChannel) process(input, feedback, damp1, damp2 float64) float64 {
	var acc float64
	for i := range ch.combs {
		acc += ch.combs[i].process(input, feedback, damp1, damp2)
	}
	acc *= reverbCombGain

	for i := range ch.allpass {
		acc = ch.allpass[i].process(acc)
	}

	return core.SoftClip(ch.dc.process(acc))
}

func (ch *reverbChannel) reset() {
	for i := range ch.combs {
		ch.combs[i].reset()
	}
	for i := range ch.allpass {
		ch.allpass[i].reset()
	}
	ch.dc = dcBlocker{}
}

func scaledLength(tuning int, scale float64) int {
	n := int(math.Round(float64(tuning) * scale))
	if n < 1 {
		n = 1
	}
	return n
}

// Reverb is a stereo Schroeder/Freeverb-style reverb: eight parallel damped
// comb filters followed by four series allpass filters per channel, with a
// DC blocker and soft clipper on the wet path.
//
// Delay lines are sized once at construction and never reallocated, so
// ProcessInterleaved is allocation-free. A Reverb is not safe for concurrent
// use; each playing voice owns its own instance.
type Reverb struct {
	sampleRate float64
	params     ReverbParams

	feedback float64
	damp1    float64
	damp2    float64
	wet1     float64
	wet2     float64
	dry      float64

	left  reverbChannel
	right reverbChannel
}

// NewReverb allocates a reverb for sampleRate with the given parameters.
func NewReverb(sampleRate float64, params ReverbParams) (*Reverb, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("reverb sample rate must be > 0: %f", sampleRate)
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}

	scale := sampleRate / reverbReferenceRate
	r := &Reverb{
		sampleRate: sampleRate,
		params:     params,
		left:       newReverbChannel(scale, 0),
		right:      newReverbChannel(scale, reverbStereoSpread),
	}
	r.updateCoefficients()

	return r, nil
}

func (r *Reverb) updateCoefficients() {
	p := r.params
	r.feedback = p.RoomSize*reverbScaleRoom + reverbOffsetRoom
	r.damp1 = p.Damping * reverbScaleDamp
	r.damp2 = 1 - r.damp1
	r.wet1 = p.Mix * (p.Width*0.5 + 0.5)
	r.wet2 = p.Mix * (0.5 - p.Width*0.5)
	r.dry = 1 - p.Mix
}

// SampleRate returns the sample rate the delay lines were sized for.
func (r *Reverb) SampleRate() float64 { return r.sampleRate }

// Params returns the parameters frozen at construction.
func (r *Reverb) Params() ReverbParams { return r.params }

// TailSeconds returns the decay tail length implied by the room size.
func (r *Reverb) TailSeconds() float64 { return r.params.TailSeconds() }

// Reset zeroes every delay line and filter memory.
func (r *Reverb) Reset() {
	r.left.reset()
	r.right.reset()
}

// ProcessStereo processes one stereo frame and returns the mixed output.
func (r *Reverb) ProcessStereo(inL, inR float64) (float64, float64) {
	input := (inL + inR) * 0.5

	wetL := r.left.process(input, r.feedback, r.damp1, r.damp2)
	wetR := r.right.process(input, r.feedback, r.damp1, r.damp2)

	outL := inL*r.dry + wetL*r.wet1 + wetR*r.wet2
	outR := inR*r.dry + wetR*r.wet1 + wetL*r.wet2
	return outL, outR
}

// ProcessMono processes one mono sample; both wet channels are averaged.
func (r *Reverb) ProcessMono(in float64) float64 {
	wetL := r.left.process(in, r.feedback, r.damp1, r.damp2)
	wetR := r.right.process(in, r.feedback, r.damp1, r.damp2)
	return in*r.dry + (wetL+wetR)*0.5*r.params.Mix
}

// ProcessInterleaved applies the reverb in place to interleaved frames.
// Only the first two channels of each frame are touched. A trailing partial
// frame is treated as mono.
func (r *Reverb) ProcessInterleaved(block []float64, channels int) {
	if channels <= 0 {
		return
	}

	n := len(block)
	for i := 0; i < n; i += channels {
		if channels >= 2 && i+1 < n {
			block[i], block[i+1] = r.ProcessStereo(block[i], block[i+1])
			continue
		}
		block[i] = r.ProcessMono(block[i])
	}
}
