package coordinator

import "sync/atomic"

// Clock hands out mutation generations.
//
// Generations are strictly increasing across all mutations of a
// Coordinator, so comparing two generations tells which was submitted last.
// Safe for concurrent use.
type Clock struct {
	gen atomic.Int64
}

// NewClock creates a clock whose first generation is 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next generation.
func (c *Clock) Next() int64 {
	return c.gen.Add(1)
}

// Current returns the most recently issued generation, or 0.
func (c *Clock) Current() int64 {
	return c.gen.Load()
}
