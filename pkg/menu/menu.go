// Package menu implements the operator menu shown on the 20x4 character
// display and driven by the rotary encoder.
package menu

import (
	"fmt"

	"github.com/itohio/gopcr/pkg/pressure"
	"github.com/itohio/gopcr/pkg/rotary"
	"github.com/itohio/gopcr/pkg/wave"
)

// Columns and Rows of the character display.
const (
	Columns = 20
	Rows    = 4
)

// Screen is the menu page currently shown on the last display row.
type Screen int

const (
	WaveScreen Screen = iota
	PeriodScreen
	AmplitudeScreen
	OffsetScreen
	OutputScreen
	numScreens
)

func (s Screen) String() string {
	switch s {
	case WaveScreen:
		return "wave"
	case PeriodScreen:
		return "period"
	case AmplitudeScreen:
		return "amplitude"
	case OffsetScreen:
		return "offset"
	case OutputScreen:
		return "output"
	default:
		return "unknown"
	}
}

// Action is what the menu asks of the session after an input.
type Action int

const (
	NoAction Action = iota
	Start
	Stop
)

// Limits bound the values dialed in with the encoder.
type Limits struct {
	PeriodMin     float32
	PeriodMax     float32
	PeriodStep    float32
	AmplitudeMax  float32
	AmplitudeStep float32
	OffsetMax     float32
	OffsetStep    float32
}

// DefaultLimits returns the stock edit limits.
func DefaultLimits() Limits {
	return Limits{
		PeriodMin:     2,
		PeriodMax:     60,
		PeriodStep:    1,
		AmplitudeMax:  100,
		AmplitudeStep: 1,
		OffsetMax:     50,
		OffsetStep:    1,
	}
}

var kindNames = map[wave.Kind]string{
	wave.Const: "Const",
	wave.Step:  "Step",
	wave.Ramp:  "Ramp",
	wave.Sine:  "Sine",
}

// Menu is the explicit UI state. It is not safe for concurrent use; the
// owner serializes inputs and renders.
//
// While Editing, encoder turns change a pending copy of the waveform; Kind
// and Params only change when the edit is confirmed with Select.
type Menu struct {
	Screen  Screen
	Editing bool
	Running bool
	Kind    wave.Kind
	Params  wave.Params
	Limits  Limits

	pendingKind   wave.Kind
	pendingParams wave.Params
}

// New creates a menu showing the output screen.
func New(kind wave.Kind, params wave.Params, limits Limits) *Menu {
	return &Menu{
		Screen: OutputScreen,
		Kind:   kind,
		Params: params,
		Limits: limits,
	}
}

// Input applies one operator input.
func (m *Menu) Input(in rotary.Input) Action {
	if in == rotary.None {
		return NoAction
	}

	if m.Running {
		if in == rotary.Select {
			return Stop
		}
		return NoAction
	}

	if m.Editing {
		if in == rotary.Select {
			m.Kind, m.Params = m.pendingKind, m.pendingParams
			m.Editing = false
			return NoAction
		}
		m.adjust(int(in))
		return NoAction
	}

	switch in {
	case rotary.Next:
		m.move(1)
	case rotary.Prev:
		m.move(-1)
	case rotary.Select:
		if m.Screen == OutputScreen {
			m.Running = true
			return Start
		}
		m.pendingKind, m.pendingParams = m.Kind, m.Params
		m.Editing = true
	}
	return NoAction
}

// Finish returns the menu to the idle output screen after a session. An
// unconfirmed edit is dropped.
func (m *Menu) Finish() {
	m.Running = false
	m.Editing = false
	m.Screen = OutputScreen
}

// move navigates between screens, skipping the shape parameters for Const.
func (m *Menu) move(dir int) {
	s := m.Screen
	for {
		s = Screen((int(s) + dir + int(numScreens)) % int(numScreens))
		if m.Kind == wave.Const && (s == PeriodScreen || s == AmplitudeScreen) {
			continue
		}
		break
	}
	m.Screen = s
}

func (m *Menu) adjust(dir int) {
	switch m.Screen {
	case WaveScreen:
		n := len(wave.Kinds)
		m.pendingKind = wave.Kind((int(m.pendingKind) + dir + n) % n)
	case PeriodScreen:
		p := &m.pendingParams
		p.Period = clamp(p.Period+float32(dir)*m.Limits.PeriodStep, m.Limits.PeriodMin, m.Limits.PeriodMax)
	case AmplitudeScreen:
		p := &m.pendingParams
		p.Amplitude = clamp(p.Amplitude+float32(dir)*m.Limits.AmplitudeStep, 0, m.Limits.AmplitudeMax)
	case OffsetScreen:
		p := &m.pendingParams
		p.Offset = clamp(p.Offset+float32(dir)*m.Limits.OffsetStep, 0, m.Limits.OffsetMax)
	}
}

// Render returns the four display rows for the given snapshot.
func (m *Menu) Render(s pressure.Snapshot) [Rows]string {
	var rows [Rows]string
	rows[0] = fmt.Sprintf("Cur:  %.1f psi", s.Current)
	rows[1] = fmt.Sprintf("Dev:  %s%%", s.DeviationText())
	rows[2] = fmt.Sprintf("Time: %.1f sec", s.Elapsed)
	rows[3] = m.option()

	for i := range rows {
		rows[i] = fmt.Sprintf("%-*.*s", Columns, Columns, rows[i])
	}
	return rows
}

func (m *Menu) option() string {
	mark := " "
	kind, params := m.Kind, m.Params
	if m.Editing {
		mark = ">"
		kind, params = m.pendingKind, m.pendingParams
	}

	switch m.Screen {
	case WaveScreen:
		return mark + "Wave: " + kindNames[kind]
	case PeriodScreen:
		return fmt.Sprintf("%sPeriod: %.0f s", mark, params.Period)
	case AmplitudeScreen:
		return fmt.Sprintf("%sAmpl: %.1f psi", mark, params.Amplitude)
	case OffsetScreen:
		return fmt.Sprintf("%sOffset: %.1f psi", mark, params.Offset)
	}

	if m.Running {
		return "Press to abort"
	}
	return "Press to begin"
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
