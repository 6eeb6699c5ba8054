// Command sfxrender renders one sound from a sound bank offline, including
// its effect tail, writes it to a WAV file and prints a decay report.
//
// Usage:
//
//	sfxrender [flags] -bank sounds.json [sound-name]
//
// Without a sound name the first sound in the bank (sorted by name) is
// rendered.
//
// Examples:
//
//	sfxrender -bank sounds.json -list
//	sfxrender -bank sounds.json -out boom.wav boom
//	sfxrender -bank sounds.json -rate 44100 -distance 25 boom
package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-sfx/asset"
	"github.com/cwbudde/algo-sfx/dsp/core"
	"github.com/cwbudde/algo-sfx/measure/decay"
	"github.com/cwbudde/algo-sfx/output"
	"github.com/cwbudde/algo-sfx/sfx"
)

func main() {
	bankPath := flag.String("bank", "", "path to the JSON sound bank")
	outPath := flag.String("out", "", "output WAV path (default <sound>.wav)")
	rate := flag.Int("rate", 48000, "output sample rate in Hz")
	channels := flag.Int("channels", 2, "output channel count")
	block := flag.Int("block", 512, "render block size in frames")
	maxSeconds := flag.Float64("max", 30, "hard limit on rendered seconds")
	distance := flag.Float64("distance", 0, "render as a positional voice this far from the listener")
	seed := flag.Int64("seed", 1, "seed for clip selection and module randomness")
	list := flag.Bool("list", false, "list sounds in the bank")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: sfxrender [flags] -bank sounds.json [sound-name]\n\n")
		fmt.Fprintf(os.Stderr, "Renders a sound and its effect tail to a WAV file.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if *bankPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	bank, err := sfx.LoadBankFile(*bankPath, nil, asset.LoadClip)
	if err != nil {
		logger.WithError(err).Fatal("load bank")
	}

	if *list {
		for _, name := range bank.Names() {
			fmt.Println(name)
		}
		return
	}

	name := flag.Arg(0)
	if name == "" {
		name = bank.Names()[0]
	}

	def := bank.Sound(name)
	if def == nil {
		logger.WithField("sound", name).Fatal("unknown sound (use -list to see available)")
	}

	out := *outPath
	if out == "" {
		out = name + ".wav"
	}

	clock := &sfx.ManualClock{}
	pool := sfx.NewPool(
		sfx.WithSampleRate(float64(*rate)),
		sfx.WithClock(clock),
		sfx.WithLogger(logger),
		sfx.WithSeed(*seed),
		sfx.WithInitialVoices(1),
		sfx.WithMaxVoices(1),
	)
	defer pool.Close()

	mixer, err := output.NewMixer(pool, *channels, core.WithBlockSize(*block), core.WithSampleRate(float64(*rate)))
	if err != nil {
		logger.WithError(err).Fatal("create mixer")
	}

	var ok bool
	if *distance > 0 {
		_, ok = pool.PlayAt(def, sfx.Vec3{X: *distance})
	} else {
		_, ok = pool.Play(def)
	}
	if !ok {
		logger.WithField("sound", name).Fatal("sound has no playable clip")
	}

	maxFrames := int(*maxSeconds * float64(*rate))
	samples := render(pool, mixer, clock, maxFrames)

	if err := asset.WriteWAVFile(out, *rate, *channels, samples); err != nil {
		logger.WithError(err).Fatal("write output")
	}

	report, err := decay.Analyze(samples, *channels, float64(*rate))
	if err != nil {
		logger.WithError(err).Fatal("analyze output")
	}

	printReport(name, out, report)
}

// render mixes blocks until every voice has returned to the pool or
// maxFrames is reached. The clock advances by one block per iteration so
// session deadlines are sample accurate.
func render(pool *sfx.Pool, mixer *output.Mixer, clock *sfx.ManualClock, maxFrames int) []float64 {
	channels := mixer.Channels()
	block := mixer.BlockSize()
	blockDur := time.Duration(float64(block) / pool.SampleRate() * float64(time.Second))

	buf := make([]float64, block*channels)
	var out []float64

	for frames := 0; frames < maxFrames && pool.Stats().Active > 0; frames += block {
		mixer.Mix(buf)
		out = append(out, buf...)

		clock.Advance(blockDur)
		pool.Tick()
	}

	return out
}

func printReport(name, path string, r decay.Report) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Sound\t%s\n", name)
	fmt.Fprintf(tw, "Output\t%s\n", path)
	fmt.Fprintf(tw, "Duration\t%.3f s (%d frames)\n", r.Duration, r.Frames)
	fmt.Fprintf(tw, "Peak\t%.4f (%.2f dBFS)\n", r.Peak, r.PeakDB)
	fmt.Fprintf(tw, "RMS\t%.4f\n", r.RMS)
	fmt.Fprintf(tw, "Tail end (-60 dB)\t%.3f s\n", r.TailEnd)
	fmt.Fprintf(tw, "RT60\t%.3f s\n", r.RT60)
	fmt.Fprintf(tw, "Centroid\t%.1f Hz\n", r.Centroid)
	if err := tw.Flush(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}
