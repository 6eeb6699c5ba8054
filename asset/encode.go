package asset

import (
	"fmt"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-sfx/dsp/core"
)

const (
	wavBitDepth  = 16
	wavPCMFormat = 1
	wavFullScale = 32767
)

// WriteWAV encodes interleaved samples as 16-bit PCM. Samples are clamped
// to [-1, 1].
func WriteWAV(w io.WriteSeeker, sampleRate, channels int, samples []float64) error {
	if sampleRate <= 0 || channels <= 0 {
		return fmt.Errorf("asset: invalid wav layout: %d Hz, %d channels", sampleRate, channels)
	}

	data := make([]int, len(samples)-len(samples)%channels)
	for i := range data {
		data[i] = int(math.Round(core.Clamp(samples[i], -1, 1) * wavFullScale))
	}

	enc := wav.NewEncoder(w, sampleRate, wavBitDepth, channels, wavPCMFormat)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("asset: write wav: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("asset: finish wav: %w", err)
	}

	return nil
}

// WriteWAVFile creates path and writes samples to it with WriteWAV.
func WriteWAVFile(path string, sampleRate, channels int, samples []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("asset: %w", err)
	}

	if err := WriteWAV(f, sampleRate, channels, samples); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
