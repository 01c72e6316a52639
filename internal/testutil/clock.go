package testutil

import "sync/atomic"

// DeterministicClock is a store.Clock for tests.
//
// Logs written with it get keys start+step, start+2*step, ... instead of
// wall-clock nanoseconds, so two logs filled in the same order have
// identical keys. Safe for concurrent use.
type DeterministicClock struct {
	now  atomic.Int64
	step int64
}

// NewDeterministicClock returns a clock whose first reading is 1.
func NewDeterministicClock() *DeterministicClock {
	return NewDeterministicClockAt(0, 1)
}

// NewDeterministicClockAt returns a clock whose first reading is
// start+step. A step below 1 is treated as 1.
func NewDeterministicClockAt(start, step int64) *DeterministicClock {
	c := &DeterministicClock{step: max(step, 1)}
	c.now.Store(start)
	return c
}

// Now advances the clock by one step and returns the new reading.
func (c *DeterministicClock) Now() int64 {
	return c.now.Add(c.step)
}

// Last returns the most recent reading without advancing.
func (c *DeterministicClock) Last() int64 {
	return c.now.Load()
}

// StuckClock always returns the same value. Used to prove that log keys stay
// unique when the clock does not advance.
type StuckClock int64

// Now returns the fixed value.
func (c StuckClock) Now() int64 {
	return int64(c)
}
