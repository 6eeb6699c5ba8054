// Package device plays an output stream on the system audio device through
// oto. Importing it needs cgo and the platform audio headers on Linux; the
// output mixer does not.
package device

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

const defaultBuffer = 20 * time.Millisecond

// Config describes the output stream.
type Config struct {
	SampleRate int
	Channels   int
	// Buffer is the device latency; zero selects 20 ms.
	Buffer time.Duration
}

// Device plays float32 PCM pulled from a reader. Only one Device may exist
// per process.
type Device struct {
	ctx    *oto.Context
	player *oto.Player

	mu      sync.Mutex // setup/control only
	started bool
}

// Open opens the system audio output and attaches src, normally an
// *output.Mixer, to it. Playback starts with Start.
func Open(cfg Config, src io.Reader) (*Device, error) {
	if cfg.SampleRate <= 0 || cfg.Channels <= 0 {
		return nil, fmt.Errorf("device: invalid device config: %+v", cfg)
	}

	if src == nil {
		return nil, fmt.Errorf("device: nil source")
	}

	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = defaultBuffer
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   buffer,
	})
	if err != nil {
		return nil, fmt.Errorf("device: open audio context: %w", err)
	}
	<-ready

	return &Device{
		ctx:    ctx,
		player: ctx.NewPlayer(src),
	}, nil
}

// Start begins pulling audio.
func (d *Device) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		d.player.Play()
		d.started = true
	}
}

// Close stops playback and releases the player.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.started = false
	if err := d.player.Close(); err != nil {
		return fmt.Errorf("device: close player: %w", err)
	}
	return nil
}
