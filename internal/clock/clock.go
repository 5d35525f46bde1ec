// Package clock abstracts the time source so that schedule computations can
// run against server-adjusted time in production and a fixed instant in
// tests.
package clock

import (
	"sync"
	"time"
)

// Clock supplies the current instant. All times are UTC.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current wall-clock time in UTC.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// OffsetClock shifts a base clock by a fixed offset. It is used to track
// server time: the offset is measured once against a server timestamp and
// applied to every subsequent reading.
type OffsetClock struct {
	base   Clock
	offset time.Duration
}

// NewOffsetClock creates an OffsetClock over base with the given offset.
func NewOffsetClock(base Clock, offset time.Duration) *OffsetClock {
	return &OffsetClock{base: base, offset: offset}
}

// Now returns the base clock's instant shifted by the offset.
func (c *OffsetClock) Now() time.Time {
	return c.base.Now().Add(c.offset)
}

// FixedClock is a settable clock for tests. The zero value reads as the zero
// time; use Set or Advance to move it.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a FixedClock pinned at t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{now: t}
}

// Now returns the pinned instant.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set pins the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
