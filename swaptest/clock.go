package swaptest

import (
	"context"
	"sync"
	"time"

	"github.com/iov-one/swapkeep"
)

// Clock is a manually driven source of time. It is safe for concurrent use.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock set to given time.
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the current time of the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Context returns a context with the block time set to the current clock
// time.
func (c *Clock) Context() context.Context {
	return swapkeep.WithBlockTime(context.Background(), c.Now())
}

// BlockTimeCtx returns a context with the block time set to given time.
func BlockTimeCtx(t time.Time) context.Context {
	return swapkeep.WithBlockTime(context.Background(), t)
}
