package output

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-sfx/dsp/core"
	"github.com/cwbudde/algo-sfx/sfx"
)

const bytesPerSample = 4

// VoiceSource provides the voices to mix. *sfx.Pool implements it.
type VoiceSource interface {
	Voices() []*sfx.Voice
}

// Mixer sums the output of every voice. It is not safe for concurrent use;
// one render goroutine owns it. SetGain may be called from anywhere.
type Mixer struct {
	src        VoiceSource
	channels   int
	sampleRate float64
	blockSize  int

	gain atomic.Uint64

	mix     []float64
	scratch []float64
	out     []float64
}

// NewMixer creates a mixer producing interleaved blocks with the given
// channel count. The block size option bounds how many frames are rendered
// per voice call; the sample rate option is informational.
func NewMixer(src VoiceSource, channels int, opts ...core.ProcessorOption) (*Mixer, error) {
	if src == nil {
		return nil, fmt.Errorf("output: nil voice source")
	}

	if channels <= 0 {
		return nil, fmt.Errorf("output: channel count must be > 0: %d", channels)
	}

	cfg := core.ApplyProcessorOptions(opts...)

	m := &Mixer{
		src:        src,
		channels:   channels,
		sampleRate: cfg.SampleRate,
		blockSize:  cfg.BlockSize,
		mix:        make([]float64, cfg.BlockSize*channels),
		scratch:    make([]float64, cfg.BlockSize*channels),
		out:        make([]float64, cfg.BlockSize*channels),
	}
	m.SetGain(1)

	return m, nil
}

// Channels returns the interleaved channel count.
func (m *Mixer) Channels() int { return m.channels }

// SampleRate returns the configured sample rate.
func (m *Mixer) SampleRate() float64 { return m.sampleRate }

// BlockSize returns the maximum frames rendered per voice call.
func (m *Mixer) BlockSize() int { return m.blockSize }

// SetGain sets the master gain applied after summing.
func (m *Mixer) SetGain(g float64) {
	m.gain.Store(math.Float64bits(g))
}

// Gain returns the master gain.
func (m *Mixer) Gain() float64 {
	return math.Float64frombits(m.gain.Load())
}

// Mix fills dst with the next interleaved frames, in chunks of at most one
// block, and clamps the result to [-1, 1]. It returns the number of active
// voices seen in the last chunk.
func (m *Mixer) Mix(dst []float64) int {
	step := m.blockSize * m.channels
	active := 0

	for off := 0; off < len(dst); off += step {
		end := min(off+step, len(dst))
		active = m.mixBlock(dst[off:end])
	}

	return active
}

func (m *Mixer) mixBlock(dst []float64) int {
	n := len(dst)
	mix := m.mix[:n]
	scratch := m.scratch[:n]
	core.Zero(mix)

	active := 0
	for _, v := range m.src.Voices() {
		if v.Render(scratch, m.channels) {
			vecmath.AddBlockInPlace(mix, scratch)
			active++
		}
	}

	if g := m.Gain(); g != 1 {
		vecmath.ScaleBlock(mix, mix, g)
	}

	core.ClampBlock(dst, mix, -1, 1)

	return active
}

// Read implements io.Reader with little-endian float32 interleaved PCM, the
// format the audio device consumes. Only whole frames are written.
func (m *Mixer) Read(p []byte) (int, error) {
	frameBytes := m.channels * bytesPerSample
	frames := len(p) / frameBytes
	if frames == 0 {
		return 0, nil
	}

	step := m.blockSize * m.channels
	samples := frames * m.channels

	written := 0
	for off := 0; off < samples; off += step {
		end := min(off+step, samples)
		buf := m.out[:end-off]
		m.mixBlock(buf)

		for _, v := range buf {
			binary.LittleEndian.PutUint32(p[written:], math.Float32bits(float32(v)))
			written += bytesPerSample
		}
	}

	return written, nil
}
