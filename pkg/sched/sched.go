// Package sched holds the scheduling context shared by the ramp engine and the
// session controller: a periodic tick source and a latched operator abort.
package sched

import "time"

// Clock delivers tick edges to a single consumer.
type Clock interface {
	// Wait blocks until the next tick edge. Returns false once the clock is stopped.
	Wait() bool
	// Elapsed returns the test time accumulated by the tick producer.
	Elapsed() time.Duration
	// ResetElapsed zeroes the accumulated test time.
	ResetElapsed()
	// Interval returns the tick period.
	Interval() time.Duration
}

// Context bundles the tick source with the abort token. It is passed by
// reference to everything that loops on ticks.
type Context struct {
	Clock Clock
	Abort *Abort
}

// NewContext creates a scheduling context around clock with a fresh abort token.
func NewContext(clock Clock) *Context {
	return &Context{
		Clock: clock,
		Abort: &Abort{},
	}
}
