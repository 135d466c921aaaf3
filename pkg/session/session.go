// Package session owns the outer test loop: arming a waveform, running it
// until the operator aborts and venting the tank afterwards.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/itohio/gopcr/pkg/menu"
	"github.com/itohio/gopcr/pkg/pressure"
	"github.com/itohio/gopcr/pkg/ramp"
	"github.com/itohio/gopcr/pkg/rotary"
	"github.com/itohio/gopcr/pkg/sched"
	"github.com/itohio/gopcr/pkg/wave"
	"github.com/womat/debug"
)

var (
	// ErrNotIdle is returned when arming while a session is in progress.
	ErrNotIdle = errors.New("session not idle")
	// ErrNotArmed is returned when starting a session that was not armed.
	ErrNotArmed = errors.New("session not armed")
)

// State is the session lifecycle state.
type State int

const (
	Idle State = iota
	Armed
	Running
	Depressurizing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Running:
		return "running"
	case Depressurizing:
		return "depressurizing"
	default:
		return "unknown"
	}
}

// EventType identifies a session event.
type EventType string

const (
	EventArmed          EventType = "ARMED"
	EventStarted        EventType = "STARTED"
	EventAborted        EventType = "ABORTED"
	EventDepressurizing EventType = "DEPRESSURIZING"
	EventIdle           EventType = "IDLE"
)

// Event is published on every session transition.
type Event struct {
	Timestamp time.Time
	Type      EventType
	State     State
	Kind      wave.Kind
	Snapshot  pressure.Snapshot
}

// Observer receives session events.
type Observer interface {
	OnSessionEvent(Event)
}

// ObserverFunc adapts a function to an Observer.
type ObserverFunc func(Event)

// OnSessionEvent calls f.
func (f ObserverFunc) OnSessionEvent(e Event) { f(e) }

// Config holds session tuning.
type Config struct {
	Generator       wave.Generator
	Tolerance       float32
	ToleranceByKind map[wave.Kind]float32
	TicksPerPoint   int
}

// ToleranceFor returns the acceptance band fraction used for kind.
func (c Config) ToleranceFor(kind wave.Kind) float32 {
	if tol, ok := c.ToleranceByKind[kind]; ok {
		return tol
	}
	if c.Tolerance > 0 {
		return c.Tolerance
	}
	return 0.1
}

// Controller runs the Idle → Armed → Running → Depressurizing → Idle cycle.
type Controller struct {
	ctx    *sched.Context
	engine *ramp.Engine
	state  *pressure.Tracker
	player *Player
	cfg    Config

	mu        sync.Mutex
	menu      *menu.Menu
	phase     State
	done      chan struct{}
	observers []Observer
}

// New creates a controller. The menu may be nil for headless use.
func New(ctx *sched.Context, engine *ramp.Engine, state *pressure.Tracker, m *menu.Menu, cfg Config) *Controller {
	return &Controller{
		ctx:    ctx,
		engine: engine,
		state:  state,
		player: NewPlayer(engine, ctx.Abort, cfg.Generator, cfg.TicksPerPoint),
		cfg:    cfg,
		menu:   m,
	}
}

// Observe registers an observer for session events.
func (c *Controller) Observe(o Observer) {
	c.mu.Lock()
	c.observers = append(c.observers, o)
	c.mu.Unlock()
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Arm stores the waveform selection and raises the run flag.
func (c *Controller) Arm(kind wave.Kind, params wave.Params) error {
	c.mu.Lock()
	if c.phase != Idle {
		c.mu.Unlock()
		return ErrNotIdle
	}
	c.phase = Armed
	if c.menu != nil {
		c.menu.Kind = kind
		c.menu.Params = params
		c.menu.Screen = menu.OutputScreen
		c.menu.Editing = false
		c.menu.Running = true
	}
	c.mu.Unlock()

	c.state.Update(func(s *pressure.State) {
		s.SetParams(kind, params)
		s.Run = true
	})
	debug.InfoLog.Printf("session armed: %s period %.1fs amplitude %.1f offset %.1f",
		kind, params.Period, params.Amplitude, params.Offset)
	c.publish(EventArmed, Armed)
	return nil
}

// Disarm drops an armed session without running it.
func (c *Controller) Disarm() error {
	c.mu.Lock()
	if c.phase != Armed {
		c.mu.Unlock()
		return ErrNotArmed
	}
	c.phase = Idle
	if c.menu != nil {
		c.menu.Finish()
	}
	c.mu.Unlock()

	c.state.Update(func(s *pressure.State) {
		s.Run = false
	})
	c.publish(EventIdle, Idle)
	return nil
}

// Start runs an armed session in the background.
func (c *Controller) Start() error {
	if err := c.begin(); err != nil {
		return err
	}
	go c.run()
	return nil
}

// Run runs an armed session and returns once the tank is vented.
func (c *Controller) Run() error {
	if err := c.begin(); err != nil {
		return err
	}
	c.run()
	return nil
}

// Abort requests the running session to stop. Returns true if the request latched.
func (c *Controller) Abort() bool {
	return c.ctx.Abort.Request()
}

// Wait blocks until the current session, if any, is back to idle.
func (c *Controller) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Input feeds one operator input through the menu and acts on the result.
func (c *Controller) Input(in rotary.Input) {
	if c.menu == nil {
		if in == rotary.Select && c.State() == Running {
			c.Abort()
		}
		return
	}

	c.mu.Lock()
	action := c.menu.Input(in)
	kind, params := c.menu.Kind, c.menu.Params
	c.mu.Unlock()

	switch action {
	case menu.Start:
		err := c.Arm(kind, params)
		if err == nil {
			err = c.Start()
		}
		if err != nil {
			debug.ErrorLog.Printf("failed to start session: %v", err)
			c.mu.Lock()
			c.menu.Finish()
			c.mu.Unlock()
		}
	case menu.Stop:
		if c.Abort() {
			debug.InfoLog.Print("abort requested by operator")
		}
	}
}

// Serve consumes operator inputs until ctx is cancelled or inputs is closed.
// A running session is aborted and vented before returning.
func (c *Controller) Serve(ctx context.Context, inputs <-chan rotary.Input) error {
	for {
		select {
		case <-ctx.Done():
			c.Abort()
			c.Wait()
			return ctx.Err()
		case in, ok := <-inputs:
			if !ok {
				c.Wait()
				return nil
			}
			c.Input(in)
		}
	}
}

// Display renders the menu rows for the current state.
func (c *Controller) Display() [menu.Rows]string {
	snap := c.state.Snapshot()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.menu == nil {
		return [menu.Rows]string{}
	}
	return c.menu.Render(snap)
}

// begin performs Armed → Running: the abort source is enabled and the test
// time reset before the caller returns.
func (c *Controller) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != Armed {
		return ErrNotArmed
	}
	c.phase = Running
	c.done = make(chan struct{})

	c.ctx.Abort.Consume()
	c.ctx.Abort.Arm()
	c.ctx.Clock.ResetElapsed()
	return nil
}

func (c *Controller) run() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	defer close(done)

	c.state.Update(func(s *pressure.State) {
		s.Elapsed = 0
	})
	c.engine.Prime()

	st := c.state.State()
	debug.InfoLog.Printf("session started: %s", st.Kind)
	c.publish(EventStarted, Running)

	c.player.Play(st.Kind, st.Params(), c.cfg.ToleranceFor(st.Kind))

	c.ctx.Abort.Disarm()
	if c.ctx.Abort.Consume() {
		debug.InfoLog.Printf("session aborted after %.1fs", c.ctx.Clock.Elapsed().Seconds())
		c.publish(EventAborted, Running)
	}

	c.setPhase(Depressurizing)
	c.publish(EventDepressurizing, Depressurizing)
	if !c.engine.Depressurize(c.cfg.Tolerance) {
		debug.ErrorLog.Print("depressurize interrupted: clock stopped")
	}

	c.state.Update(func(s *pressure.State) {
		s.Run = false
		s.Target = 0
	})

	c.mu.Lock()
	c.phase = Idle
	if c.menu != nil {
		c.menu.Finish()
	}
	c.mu.Unlock()

	debug.InfoLog.Print("session idle")
	c.publish(EventIdle, Idle)
}

func (c *Controller) setPhase(s State) {
	c.mu.Lock()
	c.phase = s
	c.mu.Unlock()
}

func (c *Controller) publish(t EventType, s State) {
	snap := c.state.Snapshot()
	e := Event{
		Timestamp: time.Now(),
		Type:      t,
		State:     s,
		Kind:      snap.Kind,
		Snapshot:  snap,
	}

	c.mu.Lock()
	observers := c.observers
	c.mu.Unlock()

	for _, o := range observers {
		o.OnSessionEvent(e)
	}
}
