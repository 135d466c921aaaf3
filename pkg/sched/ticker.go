package sched

import (
	"context"
	"sync"
	"time"
)

var (
	_ Clock = (*Ticker)(nil)
	_ Clock = (*Virtual)(nil)
)

// Ticker is a real-time tick source. The producer goroutine accumulates
// elapsed time and signals a one-slot channel, so a slow consumer sees at most
// one pending tick and never a burst of stale ones.
type Ticker struct {
	interval time.Duration

	due    chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.RWMutex
	elapsed time.Duration
	missed  int
}

// NewTicker starts a tick producer with the given period.
func NewTicker(interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &Ticker{
		interval: interval,
		due:      make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go t.run()

	return t
}

func (t *Ticker) run() {
	defer close(t.done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			return
		case <-ticker.C:
			t.mu.Lock()
			t.elapsed += t.interval
			t.mu.Unlock()

			select {
			case t.due <- struct{}{}:
			default:
				// Previous tick not consumed yet, coalesce
				t.mu.Lock()
				t.missed++
				t.mu.Unlock()
			}
		}
	}
}

// Wait blocks until the next tick edge or until the ticker is stopped.
func (t *Ticker) Wait() bool {
	select {
	case <-t.due:
		return true
	case <-t.ctx.Done():
		return false
	}
}

// Elapsed returns the accumulated tick time.
func (t *Ticker) Elapsed() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.elapsed
}

// ResetElapsed zeroes the accumulated tick time and drops a pending tick, so
// the next Wait returns a full interval later.
func (t *Ticker) ResetElapsed() {
	t.mu.Lock()
	t.elapsed = 0
	t.mu.Unlock()

	select {
	case <-t.due:
	default:
	}
}

// Interval returns the tick period.
func (t *Ticker) Interval() time.Duration {
	return t.interval
}

// Missed returns how many ticks were coalesced because the consumer lagged.
func (t *Ticker) Missed() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.missed
}

// Stop stops the producer and releases any waiting consumer.
func (t *Ticker) Stop() {
	t.cancel()
	<-t.done
}

// Virtual is a deterministic clock: every Wait advances time by one interval
// immediately. Used by tests and by the fast simulation command.
type Virtual struct {
	// OnTick, if set, is called with the 1-based tick number before Wait returns.
	OnTick func(n int)

	interval time.Duration

	mu      sync.Mutex
	ticks   int
	elapsed time.Duration
	stopped bool
}

// NewVirtual creates a virtual clock with the given period.
func NewVirtual(interval time.Duration) *Virtual {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Virtual{interval: interval}
}

// Wait advances the clock by one tick.
func (v *Virtual) Wait() bool {
	v.mu.Lock()
	if v.stopped {
		v.mu.Unlock()
		return false
	}
	v.ticks++
	v.elapsed += v.interval
	n := v.ticks
	hook := v.OnTick
	v.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	return true
}

// Ticks returns the number of ticks delivered so far.
func (v *Virtual) Ticks() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ticks
}

// Elapsed returns the virtual time accumulated since the last reset.
func (v *Virtual) Elapsed() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.elapsed
}

// ResetElapsed zeroes the accumulated virtual time. The tick counter keeps counting.
func (v *Virtual) ResetElapsed() {
	v.mu.Lock()
	v.elapsed = 0
	v.mu.Unlock()
}

// Interval returns the tick period.
func (v *Virtual) Interval() time.Duration {
	return v.interval
}

// Stop makes every following Wait return false.
func (v *Virtual) Stop() {
	v.mu.Lock()
	v.stopped = true
	v.mu.Unlock()
}
