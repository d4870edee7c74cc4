package exam

import (
	"sync"
	"time"
)

// Tick is the outcome of one countdown second.
type Tick struct {
	Remaining int
	// Warnings lists the threshold marks crossed on this tick. Each mark
	// fires at most once over the countdown's lifetime.
	Warnings []int
	// Expired is true on the single tick that reaches zero.
	Expired bool
}

// Countdown tracks the remaining seconds of a timed session. Once expired it
// stays at zero and further ticks are no-ops, so completion can only be
// signalled once and the clock never goes negative.
type Countdown struct {
	mu        sync.Mutex
	remaining int
	marks     []int
	fired     map[int]bool
	expired   bool
}

func NewCountdown(limit time.Duration, warningMarks ...int) *Countdown {
	return &Countdown{
		remaining: int(limit / time.Second),
		marks:     warningMarks,
		fired:     make(map[int]bool),
	}
}

// Tick advances the countdown by one second.
func (c *Countdown) Tick() Tick {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.expired {
		return Tick{Remaining: 0}
	}

	c.remaining--
	if c.remaining <= 0 {
		c.remaining = 0
		c.expired = true
		return Tick{Remaining: 0, Expired: true}
	}

	t := Tick{Remaining: c.remaining}
	for _, mark := range c.marks {
		if c.remaining <= mark && !c.fired[mark] {
			c.fired[mark] = true
			t.Warnings = append(t.Warnings, mark)
		}
	}
	return t
}

// Remaining reports the seconds left.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Expired reports whether the countdown has reached zero.
func (c *Countdown) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired
}
