package store

import (
	"sync/atomic"
	"time"
)

// Clock supplies record keys for appends.
type Clock interface {
	Now() int64
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() int64

// Now calls f.
func (f ClockFunc) Now() int64 {
	return f()
}

// WallClock returns wall-clock nanoseconds since the Unix epoch.
//
// Consecutive calls are strictly increasing within a process: when the
// system clock has not advanced (coarse resolution) or steps backwards,
// the previous value plus one is returned.
//
// Thread-safety: WallClock is safe for concurrent use (atomic operations).
type WallClock struct {
	last atomic.Int64
	now  func() time.Time
}

// NewWallClock creates a clock backed by time.Now.
func NewWallClock() *WallClock {
	return &WallClock{now: time.Now}
}

// Now returns the next timestamp.
func (c *WallClock) Now() int64 {
	for {
		now := c.now().UnixNano()
		last := c.last.Load()
		if now <= last {
			now = last + 1
		}
		if c.last.CompareAndSwap(last, now) {
			return now
		}
	}
}

// nextKey returns the key for the next append given the last stored key.
func nextKey(c Clock, last int64) int64 {
	return max(c.Now(), last+1)
}
