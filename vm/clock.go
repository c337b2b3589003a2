package vm

import (
	"fmt"
	"time"
)

// ---------------------------------------------------------------------------
// Clock: monotonic stopwatch cells
// ---------------------------------------------------------------------------

// Clock measures elapsed monotonic time. Creation acts like Tic.
type Clock struct {
	start  time.Time
	accum  time.Duration
	paused bool
}

// NewClock creates a running clock.
func NewClock() *Clock {
	return &Clock{start: time.Now()}
}

// Tic resets the clock and resumes it.
func (c *Clock) Tic() {
	c.accum = 0
	c.paused = false
	c.start = time.Now()
}

// Toc returns the time since the previous Tic or creation in nanoseconds,
// taking any accumulated pause time into account.
func (c *Clock) Toc() float64 {
	if !c.paused {
		return float64(c.accum + time.Since(c.start))
	}
	return float64(c.accum)
}

// Pause stops the clock.
func (c *Clock) Pause() {
	if !c.paused {
		c.accum += time.Since(c.start)
		c.paused = true
	}
}

// Resume restarts a paused clock.
func (c *Clock) Resume() {
	if c.paused {
		c.paused = false
		c.start = time.Now()
	}
}

// String renders the elapsed time in the unit range it falls into.
func (c *Clock) String() string {
	t := c.Toc()
	if t < 1000 {
		return fmt.Sprintf("%g ns", t)
	}
	if t /= 1000; t < 1000 {
		return fmt.Sprintf("%g us", t)
	}
	if t /= 1000; t < 1000 {
		return fmt.Sprintf("%g ms", t)
	}
	return fmt.Sprintf("%g s", t/1000)
}
