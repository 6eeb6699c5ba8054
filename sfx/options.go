package sfx

import "github.com/sirupsen/logrus"

const (
	defaultSampleRate    = 48000
	defaultInitialVoices = 16
	defaultMaxVoices     = 64
	defaultSeed          = 1
)

// Config holds pool settings.
type Config struct {
	SampleRate    float64
	InitialVoices int
	MaxVoices     int
	Clock         Clock
	Logger        *logrus.Logger
	Seed          int64
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns a 48 kHz pool warming up 16 voices and growing to 64.
func DefaultConfig() Config {
	return Config{
		SampleRate:    defaultSampleRate,
		InitialVoices: defaultInitialVoices,
		MaxVoices:     defaultMaxVoices,
		Seed:          defaultSeed,
	}
}

// WithSampleRate sets the output sample rate voices render at.
func WithSampleRate(sampleRate float64) Option {
	return func(cfg *Config) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithInitialVoices sets how many voices are created up front.
func WithInitialVoices(n int) Option {
	return func(cfg *Config) {
		if n >= 0 {
			cfg.InitialVoices = n
		}
	}
}

// WithMaxVoices caps the pool size.
func WithMaxVoices(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MaxVoices = n
		}
	}
}

// WithClock replaces the system clock.
func WithClock(clock Clock) Option {
	return func(cfg *Config) {
		if clock != nil {
			cfg.Clock = clock
		}
	}
}

// WithLogger routes pool events to logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(cfg *Config) {
		if logger != nil {
			cfg.Logger = logger
		}
	}
}

// WithSeed seeds clip selection and module randomness.
func WithSeed(seed int64) Option {
	return func(cfg *Config) {
		cfg.Seed = seed
	}
}

func applyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.InitialVoices > cfg.MaxVoices {
		cfg.InitialVoices = cfg.MaxVoices
	}

	if cfg.Clock == nil {
		cfg.Clock = NewSystemClock()
	}

	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	return cfg
}
