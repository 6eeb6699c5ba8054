package asset

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"

	"github.com/cwbudde/algo-sfx/sfx"
)

// LoadClip decodes the file at path, choosing the decoder by extension.
func LoadClip(path string) (*sfx.Clip, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("asset: %w", err)
	}
	defer f.Close()

	return Decode(f, format, filepath.Base(path))
}

// Decode reads a whole clip of the given format from r.
func Decode(r io.Reader, format Format, name string) (*sfx.Clip, error) {
	switch format {
	case FormatWAV, FormatAIFF:
		rs, err := seekable(r)
		if err != nil {
			return nil, fmt.Errorf("asset: read %s: %w", name, err)
		}
		if format == FormatWAV {
			return DecodeWAV(rs, name)
		}
		return DecodeAIFF(rs, name)
	case FormatMP3:
		return DecodeMP3(r, name)
	case FormatOgg:
		return DecodeOgg(r, name)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
}

// go-audio decoders need to seek between chunks.
func seekable(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// DecodeWAV decodes 8, 16, 24 or 32-bit integer PCM WAV data.
func DecodeWAV(r io.ReadSeeker, name string) (*sfx.Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrNotWAV
	}

	if dec.WavAudioFormat != 1 {
		return nil, fmt.Errorf("%w: wav audio format %d", ErrUnsupportedFormat, dec.WavAudioFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("asset: decode wav %s: %w", name, err)
	}

	// 8-bit WAV is unsigned.
	offset := 0
	if dec.BitDepth == 8 {
		offset = 128
	}

	return intBufferClip(name, buf, int(dec.BitDepth), offset)
}

// DecodeAIFF decodes integer PCM AIFF data.
func DecodeAIFF(r io.ReadSeeker, name string) (*sfx.Clip, error) {
	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrNotAIFF
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("asset: decode aiff %s: %w", name, err)
	}

	return intBufferClip(name, buf, int(dec.BitDepth), 0)
}

func intBufferClip(name string, buf *goaudio.IntBuffer, bitDepth, offset int) (*sfx.Clip, error) {
	if buf == nil || buf.Format == nil {
		return nil, fmt.Errorf("%w: %s: missing format", ErrUnsupportedFormat, name)
	}

	var scale float64
	switch bitDepth {
	case 8, 16, 24, 32:
		scale = 1 / float64(uint64(1)<<(bitDepth-1))
	default:
		return nil, fmt.Errorf("%w: %s: %d-bit samples", ErrUnsupportedFormat, name, bitDepth)
	}

	samples := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float64(v-offset) * scale
	}

	clip, err := sfx.NewClip(name, float64(buf.Format.SampleRate), buf.Format.NumChannels, samples)
	if err != nil {
		return nil, fmt.Errorf("asset: %w", err)
	}
	return clip, nil
}

// mp3Channels is fixed: go-mp3 always emits 16-bit little-endian stereo.
const mp3Channels = 2

// DecodeMP3 decodes an MPEG-1/2 layer III stream.
func DecodeMP3(r io.Reader, name string) (*sfx.Clip, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("asset: decode mp3 %s: %w", name, err)
	}

	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("asset: decode mp3 %s: %w", name, err)
	}

	samples := make([]float64, len(pcm)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(pcm[2*i:]))
		samples[i] = float64(v) / 32768
	}

	clip, err := sfx.NewClip(name, float64(dec.SampleRate()), mp3Channels, samples)
	if err != nil {
		return nil, fmt.Errorf("asset: %w", err)
	}
	return clip, nil
}

// DecodeOgg decodes an Ogg Vorbis stream.
func DecodeOgg(r io.Reader, name string) (*sfx.Clip, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("asset: decode ogg %s: %w", name, err)
	}

	samples := make([]float64, len(data))
	for i, v := range data {
		samples[i] = float64(v)
	}

	clip, err := sfx.NewClip(name, float64(format.SampleRate), format.Channels, samples)
	if err != nil {
		return nil, fmt.Errorf("asset: %w", err)
	}
	return clip, nil
}
