package sched

import "sync"

// Abort is a latched cancellation token guarded by a re-entrancy lock.
//
// Request models the button interrupt: it only latches while the token is
// armed and unlocked, so holding or bouncing the button fires once per session.
// The lock is released exclusively by Consume.
type Abort struct {
	mu        sync.Mutex
	armed     bool
	requested bool
	locked    bool
}

// Arm enables the abort edge source.
func (a *Abort) Arm() {
	a.mu.Lock()
	a.armed = true
	a.mu.Unlock()
}

// Disarm disables the abort edge source. A latched request stays latched.
func (a *Abort) Disarm() {
	a.mu.Lock()
	a.armed = false
	a.mu.Unlock()
}

// Armed reports whether requests are currently accepted.
func (a *Abort) Armed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.armed
}

// Request latches an abort. Returns true if this call set the latch.
func (a *Abort) Request() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.armed || a.locked {
		return false
	}
	a.requested = true
	a.locked = true
	return true
}

// Requested reports whether an abort is latched.
func (a *Abort) Requested() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requested
}

// Consume clears the latch and the lock. Returns whether an abort was latched.
func (a *Abort) Consume() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	was := a.requested
	a.requested = false
	a.locked = false
	return was
}
