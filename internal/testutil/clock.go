// Package testutil provides deterministic time and identity sources for
// tests and scenario runs.
package testutil

import "sync"

// FixedClock is a manually driven millisecond clock.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FixedClock struct {
	mu  sync.Mutex
	now int64
}

// NewFixedClock creates a clock reading start.
func NewFixedClock(start int64) *FixedClock {
	return &FixedClock{now: start}
}

// Now returns the current reading.
func (c *FixedClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to ms. Moving backwards is allowed so tests can
// simulate wall-clock steps.
func (c *FixedClock) Set(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = ms
}

// Advance moves the clock forward by ms and returns the new reading.
func (c *FixedClock) Advance(ms int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += ms
	return c.now
}
