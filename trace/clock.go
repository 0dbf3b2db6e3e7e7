package trace

import "sync/atomic"

// Clock is a monotonic logical clock stamping trace events.
//
// Every event carries a strictly increasing seq from one clock, so a
// recorded run can be re-read in exactly the order it happened without
// trusting wall-clock timestamps.
//
// Thread-safety: safe for concurrent use (atomic operations), though a
// firing pass emits from a single goroutine.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at a specific sequence number, for
// appending to an existing recorded trace.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
