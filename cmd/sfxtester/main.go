// Command sfxtester plays sounds from a sound bank on the default audio
// device. Keys 1-9 trigger the bank's sounds in name order, s stops the most
// recent voice, p prints pool statistics and q quits.
//
// Usage:
//
//	sfxtester [flags] -bank sounds.json
//
// Examples:
//
//	sfxtester -bank sounds.json
//	sfxtester -bank sounds.json -voices 8 -rate 44100
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/cwbudde/algo-sfx/asset"
	"github.com/cwbudde/algo-sfx/dsp/core"
	"github.com/cwbudde/algo-sfx/output"
	"github.com/cwbudde/algo-sfx/output/device"
	"github.com/cwbudde/algo-sfx/sfx"
)

const (
	keyCtrlC = 0x03
	tickRate = 5 * time.Millisecond
)

func main() {
	bankPath := flag.String("bank", "", "path to the JSON sound bank")
	rate := flag.Int("rate", 48000, "output sample rate in Hz")
	channels := flag.Int("channels", 2, "output channel count")
	voices := flag.Int("voices", 16, "maximum simultaneous voices")
	block := flag.Int("block", 256, "mixer block size in frames")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: sfxtester [flags] -bank sounds.json\n\n")
		fmt.Fprintf(os.Stderr, "Interactive sound bank player.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *bankPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if err := run(logger, *bankPath, *rate, *channels, *voices, *block); err != nil {
		logger.WithError(err).Fatal("sfxtester")
	}
}

func run(logger *logrus.Logger, bankPath string, rate, channels, voices, block int) error {
	bank, err := sfx.LoadBankFile(bankPath, nil, asset.LoadClip)
	if err != nil {
		return fmt.Errorf("load bank: %w", err)
	}

	pool := sfx.NewPool(
		sfx.WithSampleRate(float64(rate)),
		sfx.WithMaxVoices(voices),
		sfx.WithInitialVoices(voices/2),
		sfx.WithLogger(logger),
		sfx.WithSeed(time.Now().UnixNano()),
	)
	defer pool.Close()

	mixer, err := output.NewMixer(pool, channels, core.WithBlockSize(block), core.WithSampleRate(float64(rate)))
	if err != nil {
		return err
	}

	dev, err := device.Open(device.Config{SampleRate: rate, Channels: channels}, mixer)
	if err != nil {
		return err
	}
	defer dev.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := pool.Run(ctx, tickRate); err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("pool tick loop stopped")
		}
	}()

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("enable raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	// logrus writes plain newlines; raw mode needs carriage returns.
	logger.SetOutput(crlfWriter{os.Stderr})

	names := bank.Names()
	printHelp(names)
	dev.Start()

	var last sfx.Handle
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		if n == 0 {
			continue
		}

		switch key := buf[0]; {
		case key == 'q' || key == keyCtrlC:
			return nil
		case key == 's':
			if pool.Stop(last) {
				fmt.Print("stopped\r\n")
			}
		case key == 'p':
			st := pool.Stats()
			fmt.Printf("voices %d  available %d  active %d  evictions %d\r\n",
				st.Total, st.Available, st.Active, st.Evictions)
		case key >= '1' && key <= '9':
			idx := int(key - '1')
			if idx >= len(names) {
				continue
			}
			h, ok := pool.Play(bank.Sound(names[idx]))
			if !ok {
				fmt.Printf("%s: not playable\r\n", names[idx])
				continue
			}
			last = h
			fmt.Printf("%s -> voice %d\r\n", names[idx], h.Slot)
		}
	}
}

func printHelp(names []string) {
	for i, name := range names {
		if i >= 9 {
			fmt.Printf("(%d more sounds not mapped)\r\n", len(names)-9)
			break
		}
		fmt.Printf("  %d  %s\r\n", i+1, name)
	}
	fmt.Print("  s  stop last   p  stats   q  quit\r\n")
}

type crlfWriter struct {
	w *os.File
}

func (c crlfWriter) Write(p []byte) (int, error) {
	out := make([]byte, 0, len(p)+4)
	for _, b := range p {
		if b == '\n' {
			out = append(out, '\r')
		}
		out = append(out, b)
	}
	if _, err := c.w.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}
