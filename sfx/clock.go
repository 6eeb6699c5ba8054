package sfx

import (
	"sync/atomic"
	"time"
)

// Clock is the monotonic time source for session deadlines.
type Clock interface {
	Now() time.Duration
}

// SystemClock reads the process monotonic clock relative to its creation.
type SystemClock struct {
	start time.Time
}

// NewSystemClock returns a clock starting at zero.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

func (c *SystemClock) Now() time.Duration {
	return time.Since(c.start)
}

// ManualClock only moves when told to. Offline renders advance it by the
// duration of each rendered block; tests drive it directly.
type ManualClock struct {
	now atomic.Int64
}

func (c *ManualClock) Now() time.Duration {
	return time.Duration(c.now.Load())
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.now.Add(int64(d))
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Duration) {
	c.now.Store(int64(t))
}
