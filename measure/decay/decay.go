package decay

import (
	"errors"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-sfx/dsp/core"
)

// Errors returned by Analyze.
var (
	ErrEmpty             = errors.New("decay: signal is empty")
	ErrInvalidSampleRate = errors.New("decay: sample rate must be positive")
	ErrInvalidChannels   = errors.New("decay: channel count must be positive")
)

const (
	tailThresholdDB = -60.0
	fitStartDB      = -5.0
	fitEndDB        = -25.0
	floorDB         = -200.0

	// maxSpectrumSize bounds the FFT used for the centroid.
	maxSpectrumSize = 1 << 18
)

// Report summarises a rendered signal.
type Report struct {
	Frames   int
	Duration float64 // seconds

	Peak   float64 // absolute sample peak
	PeakDB float64 // dBFS
	RMS    float64

	// TailEnd is the time in seconds of the last frame within 60 dB of the
	// peak.
	TailEnd float64

	// RT60 is extrapolated from the -5 to -25 dB slope of the energy decay
	// curve measured from the peak. Zero when the signal does not decay that
	// far.
	RT60 float64

	// Centroid is the power-weighted mean frequency in Hz.
	Centroid float64
}

// Analyze measures interleaved samples with the given channel count. A
// trailing partial frame is ignored.
func Analyze(samples []float64, channels int, sampleRate float64) (Report, error) {
	if channels <= 0 {
		return Report{}, ErrInvalidChannels
	}

	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return Report{}, ErrInvalidSampleRate
	}

	frames := len(samples) / channels
	if frames == 0 {
		return Report{}, ErrEmpty
	}
	samples = samples[:frames*channels]

	energy := make([]float64, frames)
	mono := make([]float64, frames)
	framePeak := make([]float64, frames)

	var peak, sumSquares float64
	peakFrame := 0

	for f := 0; f < frames; f++ {
		frame := samples[f*channels : (f+1)*channels]
		for _, v := range frame {
			e := v * v
			energy[f] += e
			mono[f] += v
			framePeak[f] = math.Max(framePeak[f], math.Abs(v))
		}
		mono[f] /= float64(channels)
		sumSquares += energy[f]

		if framePeak[f] > peak {
			peak = framePeak[f]
			peakFrame = f
		}
	}

	r := Report{
		Frames:   frames,
		Duration: float64(frames) / sampleRate,
		Peak:     peak,
		PeakDB:   core.LinearToDB(peak),
		RMS:      math.Sqrt(sumSquares / float64(len(samples))),
	}

	if peak == 0 {
		return r, nil
	}

	r.TailEnd = tailEnd(framePeak, peak) / sampleRate
	r.RT60 = reverbTime(schroeder(energy[peakFrame:]), sampleRate)
	r.Centroid = centroid(mono, sampleRate)

	return r, nil
}

// tailEnd returns the frame count up to and including the last frame above
// the tail threshold.
func tailEnd(framePeak []float64, peak float64) float64 {
	threshold := peak * core.DBToLinear(tailThresholdDB)
	for f := len(framePeak) - 1; f >= 0; f-- {
		if framePeak[f] >= threshold {
			return float64(f + 1)
		}
	}
	return 0
}

// schroeder integrates energy backwards and returns the normalised decay
// curve in dB.
func schroeder(energy []float64) []float64 {
	curve := make([]float64, len(energy))

	var sum float64
	for i := len(energy) - 1; i >= 0; i-- {
		sum += energy[i]
		curve[i] = sum
	}

	total := curve[0]
	for i, v := range curve {
		if v <= 0 || total <= 0 {
			curve[i] = floorDB
			continue
		}
		curve[i] = core.PowerToDB(v / total)
	}

	return curve
}

// reverbTime fits a line to the curve between fitStartDB and fitEndDB and
// extrapolates it to -60 dB.
func reverbTime(curve []float64, sampleRate float64) float64 {
	start, end := -1, -1
	for i, v := range curve {
		if start < 0 && v <= fitStartDB {
			start = i
		}
		if start >= 0 && v <= fitEndDB {
			end = i
			break
		}
	}

	if start < 0 || end <= start {
		return 0
	}

	var sumX, sumY, sumXX, sumXY float64
	for i := start; i <= end; i++ {
		x := float64(i - start)
		y := curve[i]
		sumX += x
		sumY += y
		sumXX += x * x
		sumXY += x * y
	}

	n := float64(end - start + 1)
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}

	slope := (n*sumXY - sumX*sumY) / denom
	if slope >= 0 {
		return 0
	}

	return -60 / (slope * sampleRate)
}

// centroid computes the power-weighted mean frequency of a Hann-windowed
// FFT of x.
func centroid(x []float64, sampleRate float64) float64 {
	n := len(x)
	if n > maxSpectrumSize {
		n = maxSpectrumSize
	}

	size := nextPowerOf2(n)
	if size < 2 {
		return 0
	}

	windowed := make([]float64, n)
	copy(windowed, x[:n])
	vecmath.MulBlockInPlace(windowed, hann(n))

	in := make([]complex128, size)
	for i, v := range windowed {
		in[i] = complex(v, 0)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return 0
	}

	out := make([]complex128, size)
	if err := plan.Forward(out, in); err != nil {
		return 0
	}

	bins := size/2 + 1
	re := make([]float64, bins)
	im := make([]float64, bins)
	for k := 0; k < bins; k++ {
		re[k] = real(out[k])
		im[k] = imag(out[k])
	}

	power := make([]float64, bins)
	vecmath.Power(power, re, im)

	var weighted, total float64
	binHz := sampleRate / float64(size)
	for k, p := range power {
		weighted += float64(k) * binHz * p
		total += p
	}

	if total == 0 {
		return 0
	}
	return weighted / total
}

func hann(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
