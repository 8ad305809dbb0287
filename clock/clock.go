// Package clock provides a minimal injectable time source so schedulers and
// loggers can be driven by a fake clock in tests.
package clock

import (
	"sync"
	"time"
)

// Clock abstracts time.Now so callers can inject a deterministic source in
// tests.
type Clock interface {
	Now() time.Time
}

// OsClock is a Clock backed by the real wall clock.
type OsClock struct{}

func (OsClock) Now() time.Time { return time.Now() }

// OrDefault returns c unless it is nil, in which case an OsClock is returned.
func OrDefault(c Clock) Clock {
	if c != nil {
		return c
	}
	return OsClock{}
}

// TestClock is a Clock with a settable, advanceable current time, safe for
// concurrent use from a test and the code under test.
type TestClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewTestClock returns a TestClock seeded with t0.
func NewTestClock(t0 time.Time) *TestClock {
	return &TestClock{now: t0}
}

func (c *TestClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *TestClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set replaces the current time.
func (c *TestClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

var _ Clock = (*TestClock)(nil)
var _ Clock = OsClock{}
