package overlay

import (
	"fmt"
	"time"
)

// FPSCounter reports the instantaneous frame rate between two ticks.
type FPSCounter struct {
	prev time.Time
	last float64
}

// Tick records a frame at now and returns 1/(now-prev). The first tick,
// and any tick that does not move the clock forward, returns 0.
func (c *FPSCounter) Tick(now time.Time) float64 {
	defer func() { c.prev = now }()
	if c.prev.IsZero() {
		c.last = 0
		return 0
	}
	dt := now.Sub(c.prev).Seconds()
	if dt <= 0 {
		c.last = 0
		return 0
	}
	c.last = 1 / dt
	return c.last
}

// FPS returns the value of the last tick.
func (c *FPSCounter) FPS() float64 {
	return c.last
}

// Label formats the last value the way the demos print it.
func (c *FPSCounter) Label() string {
	return fmt.Sprintf("FPS: %d", int(c.last))
}
