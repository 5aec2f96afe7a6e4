package pipeline

import "sync/atomic"

// Clock is a monotonic logical clock. Every pass invocation in a run is
// stamped with the next value, so journal entries order the same way on
// every replay of the same input.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
