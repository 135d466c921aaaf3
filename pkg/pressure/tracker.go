package pressure

import (
	"sync"

	"github.com/itohio/gopcr/pkg/rig"
	"github.com/itohio/gopcr/pkg/wave"
)

// Snapshot is a point-in-time read-only copy of the state.
type Snapshot struct {
	Current   float32     `json:"current"`
	Target    float32     `json:"target"`
	Period    float32     `json:"period"`
	Amplitude float32     `json:"amplitude"`
	Offset    float32     `json:"offset"`
	Elapsed   float32     `json:"elapsed"`
	Kind      wave.Kind   `json:"-"`
	Run       bool        `json:"run"`
	Channel   rig.Channel `json:"-"`
}

// Deviation returns the percent deviation of the snapshot.
func (s Snapshot) Deviation() float32 {
	return Deviation(s.Current, s.Target)
}

// DeviationText returns the deviation formatted for display.
func (s Snapshot) DeviationText() string {
	return FormatDeviation(s.Deviation())
}

// Tracker guards the state of a session. The ramp engine is its only writer
// while a session runs; everyone else reads snapshots.
type Tracker struct {
	mu    sync.RWMutex
	state State
}

// NewTracker creates a tracker with the given initial state.
func NewTracker(initial State) *Tracker {
	return &Tracker{state: initial}
}

// Update mutates the state under the write lock.
func (t *Tracker) Update(fn func(s *State)) {
	t.mu.Lock()
	fn(&t.state)
	t.mu.Unlock()
}

// State returns a copy of the state.
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Snapshot returns a read-only copy of the state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := t.state
	return Snapshot{
		Current:   s.Current,
		Target:    s.Target,
		Period:    s.Period,
		Amplitude: s.Amplitude,
		Offset:    s.Offset,
		Elapsed:   s.Elapsed,
		Kind:      s.Kind,
		Run:       s.Run,
		Channel:   s.Channel,
	}
}
