// Package ramp drives the measured pressure toward a set-point by energizing
// one actuator channel for a bounded number of ticks.
package ramp

import (
	"sync"

	"github.com/itohio/gopcr/pkg/pressure"
	"github.com/itohio/gopcr/pkg/rig"
	"github.com/itohio/gopcr/pkg/sched"
	"github.com/itohio/gopcr/pkg/telemetry"
	"github.com/womat/debug"
)

// DefaultMaxTicks bounds a single Ramp call: 500 ms at a 100 ms tick.
const DefaultMaxTicks = 5

// Hardware is the part of a rig device the engine drives.
type Hardware interface {
	rig.Actuator
	rig.Sensor
}

// Engine owns the actuator for the duration of each call and is the only
// writer of the current and target pressure while a session runs.
type Engine struct {
	ctx      *sched.Context
	hw       Hardware
	state    *pressure.Tracker
	sink     telemetry.Sink
	maxTicks int

	last      float32
	lastTicks int
	halted    bool

	cbMu      sync.RWMutex
	callbacks []func(pressure.Snapshot)
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxTicks overrides the per call tick budget.
func WithMaxTicks(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxTicks = n
		}
	}
}

// WithSink sets the telemetry sink that receives every sample.
func WithSink(s telemetry.Sink) Option {
	return func(e *Engine) {
		e.sink = s
	}
}

// New creates an engine.
func New(ctx *sched.Context, hw Hardware, state *pressure.Tracker, opts ...Option) *Engine {
	e := &Engine{
		ctx:      ctx,
		hw:       hw,
		state:    state,
		maxTicks: DefaultMaxTicks,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnSample registers a callback invoked after every sample with a fresh snapshot.
func (e *Engine) OnSample(fn func(pressure.Snapshot)) {
	e.cbMu.Lock()
	e.callbacks = append(e.callbacks, fn)
	e.cbMu.Unlock()
}

// MaxTicks returns the per call tick budget.
func (e *Engine) MaxTicks() int {
	return e.maxTicks
}

// LastTicks returns the number of ticks consumed by the previous call.
func (e *Engine) LastTicks() int {
	return e.lastTicks
}

// Halted reports whether the clock was stopped under the engine.
func (e *Engine) Halted() bool {
	return e.halted
}

// Prime samples the sensor once without waiting for a tick.
func (e *Engine) Prime() {
	e.sample()
}

// Ramp energizes ch until |current| enters [|target|·(1−tol), |target|·(1+tol)]
// or the tick budget runs out. The channel is released before returning.
// An abort request releases the channel and returns false at once.
//
// With ch == Hold nothing is energized: the call samples for the full budget
// and reports whether the last sample was in the band.
func (e *Engine) Ramp(ch rig.Channel, target, tol float32) bool {
	target = pressure.Snap(target)
	e.state.Update(func(s *pressure.State) {
		s.Target = target
	})
	e.lastTicks = 0

	if ch == rig.Hold {
		if !e.Settle(e.maxTicks) {
			return false
		}
		return pressure.InBand(e.current(), target, tol)
	}

	if e.ctx.Abort.Requested() {
		e.release()
		return false
	}

	if pressure.InBand(e.current(), target, tol) {
		e.release()
		debug.DebugLog.Printf("ramp %s to %.2f: already in band", ch, target)
		return true
	}

	if err := e.actuate(ch); err != nil {
		e.release()
		return false
	}

	for range e.maxTicks {
		if !e.tick() {
			e.release()
			debug.DebugLog.Printf("ramp %s to %.2f: aborted after %d ticks", ch, target, e.lastTicks)
			return false
		}

		if pressure.InBand(e.current(), target, tol) {
			e.release()
			debug.DebugLog.Printf("ramp %s to %.2f: reached after %d ticks", ch, target, e.lastTicks)
			return true
		}
	}

	e.release()
	debug.DebugLog.Printf("ramp %s to %.2f: timed out at %.2f", ch, target, e.current())
	return false
}

// Settle holds both channels closed and samples for n ticks. Returns false if
// interrupted by an abort or a stopped clock.
func (e *Engine) Settle(n int) bool {
	e.release()
	for range n {
		if !e.tick() {
			return false
		}
	}
	return true
}

// Approach drives toward target without a tolerance band or tick budget until
// the target is crossed. The direction follows the sign of target − current.
// Returns false on abort.
func (e *Engine) Approach(target float32) bool {
	target = pressure.Snap(target)
	e.state.Update(func(s *pressure.State) {
		s.Target = target
	})
	e.lastTicks = 0

	cur := e.current()
	var ch rig.Channel
	switch {
	case target > cur:
		ch = rig.Raise
	case target < cur:
		ch = rig.Lower
	default:
		return true
	}

	if err := e.actuate(ch); err != nil {
		e.release()
		return false
	}

	for {
		if !e.tick() {
			e.release()
			debug.DebugLog.Printf("approach %.2f: aborted at %.2f", target, e.current())
			return false
		}

		cur = e.current()
		if (ch == rig.Raise && cur >= target) || (ch == rig.Lower && cur <= target) {
			e.release()
			debug.DebugLog.Printf("approach %.2f: crossed at %.2f after %d ticks", target, cur, e.lastTicks)
			return true
		}
	}
}

// Depressurize vents the tank with Lower ramps toward zero until the pressure
// drops below the zero epsilon. Only a stopped clock interrupts it.
func (e *Engine) Depressurize(tol float32) bool {
	for e.current() >= pressure.Epsilon {
		if !e.Ramp(rig.Lower, 0, tol) && e.halted {
			return false
		}
	}
	return true
}

// tick waits for the next tick edge and samples. Abort is checked on both
// sides of the wait.
func (e *Engine) tick() bool {
	if e.ctx.Abort.Requested() {
		return false
	}
	if !e.ctx.Clock.Wait() {
		e.halted = true
		return false
	}
	e.lastTicks++
	if e.ctx.Abort.Requested() {
		return false
	}
	e.sample()
	return true
}

func (e *Engine) sample() {
	v, err := e.hw.Read()
	if err != nil {
		debug.ErrorLog.Printf("failed to read pressure, keeping %.2f: %v", e.last, err)
		v = e.last
	}
	v = pressure.Snap(v)
	e.last = v

	elapsed := float32(e.ctx.Clock.Elapsed().Seconds())
	e.state.Update(func(s *pressure.State) {
		s.Current = v
		s.Elapsed = elapsed
	})

	if e.sink != nil {
		if err := e.sink.Emit(v); err != nil {
			debug.ErrorLog.Printf("telemetry: %v", err)
		}
	}

	snap := e.state.Snapshot()
	debug.TraceLog.Printf("tick %.1fs: current %.2f target %.2f %s", snap.Elapsed, snap.Current, snap.Target, snap.Channel)

	e.cbMu.RLock()
	callbacks := e.callbacks
	e.cbMu.RUnlock()
	for _, fn := range callbacks {
		fn(snap)
	}
}

func (e *Engine) current() float32 {
	return e.state.State().Current
}

func (e *Engine) actuate(ch rig.Channel) error {
	if err := e.hw.Set(ch); err != nil {
		debug.ErrorLog.Printf("failed to energize %s: %v", ch, err)
		return err
	}
	e.state.Update(func(s *pressure.State) {
		s.Channel = ch
	})
	return nil
}

func (e *Engine) release() {
	if err := e.hw.Set(rig.Hold); err != nil {
		debug.ErrorLog.Printf("failed to release actuator: %v", err)
	}
	e.state.Update(func(s *pressure.State) {
		s.Channel = rig.Hold
	})
}
