package sfx

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Stats is a point-in-time view of the pool.
type Stats struct {
	Total     int
	Available int
	Active    int
	Evictions uint64
}

type playEnv struct {
	rng      *rand.Rand
	position *Vec3
	listener Vec3
}

// Pool owns a bounded set of voices. Play, Stop, Tick and the other control
// methods may be called from any goroutine; they serialise on an internal
// lock the render path never takes. The render path reads Voices.
type Pool struct {
	cfg Config
	log *logrus.Logger

	mu        sync.Mutex
	voices    []*Voice
	available []*Voice // FIFO of returned voices
	active    []*Voice // in acquisition order
	listener  Vec3
	evictions uint64
	closed    bool
	rng       *rand.Rand

	snapshot atomic.Pointer[[]*Voice]
}

// NewPool creates a pool and warms up its initial voices.
func NewPool(opts ...Option) *Pool {
	cfg := applyOptions(opts...)

	p := &Pool{
		cfg:       cfg,
		log:       cfg.Logger,
		voices:    make([]*Voice, 0, cfg.MaxVoices),
		available: make([]*Voice, 0, cfg.MaxVoices),
		active:    make([]*Voice, 0, cfg.MaxVoices),
		rng:       rand.New(rand.NewSource(cfg.Seed)),
	}

	for i := 0; i < cfg.InitialVoices; i++ {
		p.available = append(p.available, p.grow())
	}
	p.publish()

	return p
}

// SampleRate returns the rate voices render at.
func (p *Pool) SampleRate() float64 { return p.cfg.SampleRate }

// Clock returns the pool's time source.
func (p *Pool) Clock() Clock { return p.cfg.Clock }

// Voices returns every voice created so far. The slice is shared and must
// not be modified; it is replaced, never mutated, when the pool grows.
func (p *Pool) Voices() []*Voice {
	if s := p.snapshot.Load(); s != nil {
		return *s
	}
	return nil
}

// Play starts def on a voice. It returns false only when def has no
// playable clip or the pool is closed; a full pool evicts its oldest voice.
func (p *Pool) Play(def *SoundDefinition) (Handle, bool) {
	return p.play(def, nil)
}

// PlayAt is Play for a voice positioned in the world. Attenuation follows
// the spatial settings applied by the definition's modules.
func (p *Pool) PlayAt(def *SoundDefinition, position Vec3) (Handle, bool) {
	return p.play(def, &position)
}

func (p *Pool) play(def *SoundDefinition, position *Vec3) (Handle, bool) {
	if !def.Playable() {
		name := ""
		if def != nil {
			name = def.Name
		}
		p.log.WithField("sound", name).Debug("sfx: definition has no playable clip")
		return Handle{}, false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return Handle{}, false
	}

	v := p.acquire()
	clip := def.pickClip(p.rng)
	env := &playEnv{rng: p.rng, position: position, listener: p.listener}

	if err := v.start(def, clip, p.cfg.Clock.Now(), env); err != nil {
		p.log.WithFields(logrus.Fields{
			"sound": def.Name,
			"slot":  v.slot,
		}).WithError(err).Error("sfx: module init failed")
	}

	p.active = append(p.active, v)
	return v.handle(), true
}

// acquire prefers a returned voice, then a new one, then evicts the voice
// acquired longest ago. Must be called with mu held.
func (p *Pool) acquire() *Voice {
	if len(p.available) > 0 {
		v := p.available[0]
		p.available = removeAt(p.available, 0)
		return v
	}

	if len(p.voices) < p.cfg.MaxVoices {
		v := p.grow()
		p.publish()
		return v
	}

	v := p.active[0]
	p.active = removeAt(p.active, 0)
	v.stop()
	p.evictions++

	p.log.WithFields(logrus.Fields{
		"slot":      v.slot,
		"sound":     v.sound,
		"evictions": p.evictions,
	}).Warn("sfx: pool exhausted, evicting oldest voice")

	return v
}

func (p *Pool) grow() *Voice {
	v := newVoice(len(p.voices), p.cfg.SampleRate)
	p.voices = append(p.voices, v)
	p.log.WithField("slot", v.slot).Debug("sfx: voice created")
	return v
}

func (p *Pool) publish() {
	snap := make([]*Voice, len(p.voices))
	copy(snap, p.voices)
	p.snapshot.Store(&snap)
}

// Stop ends the session h refers to immediately, truncating any tail. It
// returns false when the handle is stale.
func (p *Pool) Stop(h Handle) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.activeIndex(h)
	if idx < 0 {
		return false
	}

	v := p.active[idx]
	p.active = removeAt(p.active, idx)
	v.stop()
	p.recycle(v)
	return true
}

// State returns the lifecycle state of the session h refers to, or
// StateIdle when the handle is stale.
func (p *Pool) State(h Handle) State {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.activeIndex(h)
	if idx < 0 {
		return StateIdle
	}
	return p.active[idx].State()
}

func (p *Pool) activeIndex(h Handle) int {
	if !h.Valid() {
		return -1
	}

	for i, v := range p.active {
		if v.slot == h.Slot && v.gen.Load() == h.Generation {
			return i
		}
	}
	return -1
}

// Tick advances every active voice to the clock's current time, returns
// finished voices to the pool and refreshes spatial gains.
func (p *Pool) Tick() {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.cfg.Clock.Now()

	kept := p.active[:0]
	for _, v := range p.active {
		if v.advance(now) {
			p.recycle(v)
			continue
		}
		v.updateSpatial(p.listener)
		kept = append(kept, v)
	}

	for i := len(kept); i < len(p.active); i++ {
		p.active[i] = nil
	}
	p.active = kept
}

// Run calls Tick every interval until ctx is done.
func (p *Pool) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("sfx: tick interval must be > 0: %v", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Tick()
		}
	}
}

// SetListener moves the listener and re-attenuates positional voices.
func (p *Pool) SetListener(position Vec3) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.listener = position
	for _, v := range p.active {
		v.updateSpatial(position)
	}
}

// Close stops every voice. Later plays return false.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	for _, v := range p.active {
		v.stop()
		p.recycle(v)
	}
	clear(p.active)
	p.active = p.active[:0]
	p.closed = true

	p.log.WithField("voices", len(p.voices)).Info("sfx: pool closed")
}

// Stats reports the pool's current occupancy.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Stats{
		Total:     len(p.voices),
		Available: len(p.available),
		Active:    len(p.active),
		Evictions: p.evictions,
	}
}

// recycle queues a released voice for reuse. Must be called with mu held.
func (p *Pool) recycle(v *Voice) {
	v.idle()
	p.available = append(p.available, v)
	p.log.WithFields(logrus.Fields{
		"slot":  v.slot,
		"sound": v.sound,
	}).Debug("sfx: voice returned")
}

func removeAt(list []*Voice, i int) []*Voice {
	copy(list[i:], list[i+1:])
	list[len(list)-1] = nil
	return list[:len(list)-1]
}

// checkInvariants verifies the available/active partition.
func (p *Pool) checkInvariants() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.voices) > p.cfg.MaxVoices {
		return fmt.Errorf("pool holds %d voices, cap %d", len(p.voices), p.cfg.MaxVoices)
	}

	seen := make(map[*Voice]string, len(p.voices))
	for _, v := range p.available {
		if _, dup := seen[v]; dup {
			return fmt.Errorf("voice %d queued twice", v.slot)
		}
		seen[v] = "available"
		if v.State() != StateIdle {
			return fmt.Errorf("available voice %d is %s", v.slot, v.State())
		}
	}

	for _, v := range p.active {
		if where, dup := seen[v]; dup {
			return fmt.Errorf("voice %d is active and %s", v.slot, where)
		}
		seen[v] = "active"
		if s := v.State(); s != StatePlaying && s != StateTail {
			return fmt.Errorf("active voice %d is %s", v.slot, s)
		}
	}

	owned := make(map[*Voice]bool, len(p.voices))
	for _, v := range p.voices {
		owned[v] = true
	}
	for v := range seen {
		if !owned[v] {
			return fmt.Errorf("voice %d not owned by pool", v.slot)
		}
	}

	return nil
}
