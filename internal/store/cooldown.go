package store

import (
	"fmt"
	"sync"
)

// Ticker calls fn once per second until the returned stop func is called
type Ticker interface {
	Start(fn func()) (stop func())
}

// Cooldown counts down the seconds before another OTP may be requested
type Cooldown struct {
	mu        sync.Mutex
	seconds   int
	remaining int
	ticker    Ticker
	stop      func()
}

// NewCooldown creates a stopped cooldown. ticker may be nil, in which case
// the owner drives it with Tick.
func NewCooldown(seconds int, ticker Ticker) *Cooldown {
	return &Cooldown{seconds: seconds, ticker: ticker}
}

// Start resets the counter to its full length and starts ticking
func (c *Cooldown) Start() {
	c.mu.Lock()
	prev := c.stop
	c.stop = nil
	c.remaining = c.seconds
	c.mu.Unlock()

	if prev != nil {
		prev()
	}
	if c.ticker == nil {
		return
	}

	stop := c.ticker.Start(func() { c.Tick() })
	c.mu.Lock()
	c.stop = stop
	c.mu.Unlock()
}

// Tick moves the counter one second down and returns what is left. The
// ticker is released when the counter reaches zero.
func (c *Cooldown) Tick() int {
	c.mu.Lock()
	if c.remaining > 0 {
		c.remaining--
	}
	remaining := c.remaining
	var stop func()
	if remaining == 0 {
		stop, c.stop = c.stop, nil
	}
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
	return remaining
}

// Stop zeroes the counter
func (c *Cooldown) Stop() {
	c.mu.Lock()
	stop := c.stop
	c.stop = nil
	c.remaining = 0
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// Remaining returns the seconds left
func (c *Cooldown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Active reports whether a new request is still blocked
func (c *Cooldown) Active() bool {
	return c.Remaining() > 0
}

// Label is the text of the request button
func (c *Cooldown) Label() string {
	if r := c.Remaining(); r > 0 {
		return fmt.Sprintf("Wait %ds", r)
	}
	return "Get Code"
}
