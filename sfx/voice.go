package sfx

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-sfx/dsp/core"
)

// State is the lifecycle position of a Voice.
type State int32

const (
	StateIdle State = iota
	StatePlaying
	StateTail
	StateReturning
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StateTail:
		return "tail"
	case StateReturning:
		return "returning"
	default:
		return "unknown"
	}
}

// Handle identifies one play session. A handle goes stale once its voice
// finishes or is reused.
type Handle struct {
	Slot       int
	Generation uint64
}

// Valid reports whether the handle came from a successful Play.
func (h Handle) Valid() bool { return h.Generation != 0 }

// session is everything the render path needs for one play. A new session
// is built for every play and published atomically, so a render call that
// raced with Stop finishes its block on the old session untouched.
type session struct {
	clip  *Clip
	chain *EffectChain

	step        float64
	volume      float64
	spatial     SpatialSettings
	spatialGain atomic.Uint64

	tail atomic.Bool

	// render-owned
	cursor float64
}

func (s *session) setSpatialGain(g float64) {
	s.spatialGain.Store(math.Float64bits(g))
}

func (s *session) gain() float64 {
	return s.volume * math.Float64frombits(s.spatialGain.Load())
}

// Voice is one reusable playback slot. Control methods are called by the
// pool under its lock; Render is called by the host output stage.
type Voice struct {
	slot  int
	state atomic.Int32
	gen   atomic.Uint64

	current atomic.Pointer[session]

	// control-owned
	vc         VoiceContext
	sound      string
	positional bool
	position   Vec3
	maxTail    time.Duration
	deadline   time.Duration
}

func newVoice(slot int, sampleRate float64) *Voice {
	v := &Voice{slot: slot}
	v.vc.SampleRate = sampleRate
	v.vc.Slot = slot
	v.vc.reset()
	return v
}

// Slot returns the voice's index in the pool.
func (v *Voice) Slot() int { return v.slot }

// State returns the current lifecycle state.
func (v *Voice) State() State { return State(v.state.Load()) }

func (v *Voice) handle() Handle {
	return Handle{Slot: v.slot, Generation: v.gen.Load()}
}

// Render fills block with the voice's next interleaved output frames and
// runs the session's effect chain over it. It returns false and writes
// silence when no session is active. Render never blocks or allocates and
// must be called from one goroutine at a time.
func (v *Voice) Render(block []float64, channels int) bool {
	s := v.current.Load()
	if s == nil || channels <= 0 {
		core.Zero(block)
		return false
	}

	if s.tail.Load() {
		core.Zero(block)
	} else {
		s.readSource(block, channels)
	}

	s.chain.Process(block, channels)
	return true
}

// readSource resamples the clip into block. Clip channels map onto output
// channels: mono is duplicated, a mono output averages the clip channels,
// and surplus output channels repeat the last clip channel.
func (s *session) readSource(block []float64, channels int) {
	clip := s.clip
	frames := clip.Frames()
	end := float64(frames)
	gain := s.gain()

	n := len(block)
	for i := 0; i < n; i += channels {
		if s.cursor >= end {
			core.Zero(block[i:])
			return
		}

		base := int(s.cursor)
		frac := s.cursor - float64(base)
		next := base + 1
		if next >= frames {
			next = base
		}

		frame := min(channels, n-i)
		for c := 0; c < frame; c++ {
			a := clipSample(clip, base, c, channels)
			b := clipSample(clip, next, c, channels)
			block[i+c] = (a + (b-a)*frac) * gain
		}

		s.cursor += s.step
	}
}

func clipSample(clip *Clip, frame, outChannel, outChannels int) float64 {
	src := clip.Samples[frame*clip.Channels : (frame+1)*clip.Channels]

	if outChannels == 1 && len(src) > 1 {
		var sum float64
		for _, x := range src {
			sum += x
		}
		return sum / float64(len(src))
	}

	return src[min(outChannel, len(src)-1)]
}

// start begins a new session. Module init errors are returned for logging;
// the session still starts with the modules that did initialise.
func (v *Voice) start(def *SoundDefinition, clip *Clip, now time.Duration, env *playEnv) error {
	v.vc.Rand = env.rng
	chain, err := BuildChain(def.Modules, &v.vc)

	pitch := v.vc.Pitch
	if !(pitch > 0) || math.IsInf(pitch, 0) {
		pitch = 1
	}
	volume := core.Clamp(v.vc.Volume, 0, 1)

	s := &session{
		clip:    clip,
		chain:   chain,
		step:    pitch * clip.SampleRate / v.vc.SampleRate,
		volume:  volume,
		spatial: v.vc.Spatial,
	}

	v.sound = def.Name
	v.positional = env.position != nil
	if v.positional {
		v.position = *env.position
	}
	s.setSpatialGain(v.spatialGain(s.spatial, env.listener))

	v.maxTail = secondsToDuration(chain.MaxTailTime())
	v.deadline = now + time.Duration(float64(clip.Duration())/pitch)

	v.gen.Add(1)
	v.state.Store(int32(StatePlaying))
	v.current.Store(s)

	return err
}

// advance moves the state machine to now and reports whether the voice has
// finished and belongs back in the pool. The clip ends on the clock alone,
// never before start + duration/pitch, however far the render path has read
// ahead; past the clip end it renders silence until then.
func (v *Voice) advance(now time.Duration) bool {
	switch v.State() {
	case StatePlaying:
		s := v.current.Load()
		if s == nil {
			v.release()
			return true
		}

		if now < v.deadline {
			return false
		}

		if v.maxTail <= 0 {
			v.release()
			return true
		}

		s.tail.Store(true)
		v.deadline = now + v.maxTail
		v.state.Store(int32(StateTail))
		return false

	case StateTail:
		if now < v.deadline {
			return false
		}
		v.release()
		return true

	case StateReturning:
		return true

	default:
		return false
	}
}

// stop halts the voice without waiting for its tail.
func (v *Voice) stop() {
	v.release()
}

func (v *Voice) release() {
	v.state.Store(int32(StateReturning))
	v.current.Store(nil)
	v.maxTail = 0
	v.deadline = 0
	v.positional = false
}

func (v *Voice) idle() {
	v.state.Store(int32(StateIdle))
}

func (v *Voice) updateSpatial(listener Vec3) {
	s := v.current.Load()
	if s == nil {
		return
	}
	s.setSpatialGain(v.spatialGain(s.spatial, listener))
}

func (v *Voice) spatialGain(settings SpatialSettings, listener Vec3) float64 {
	if !v.positional {
		return 1
	}
	return settings.Gain(v.position.Distance(listener))
}

func secondsToDuration(seconds float64) time.Duration {
	if !(seconds > 0) || math.IsInf(seconds, 0) {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
