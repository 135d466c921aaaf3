package menu

import (
	"testing"

	"github.com/itohio/gopcr/pkg/pressure"
	"github.com/itohio/gopcr/pkg/rotary"
	"github.com/itohio/gopcr/pkg/wave"
	"github.com/stretchr/testify/assert"
)

func newMenu(kind wave.Kind) *Menu {
	return New(kind, wave.Params{Period: 10, Amplitude: 20, Offset: 10}, DefaultLimits())
}

func TestMenu_NavigationWraps(t *testing.T) {
	m := newMenu(wave.Sine)
	assert.Equal(t, OutputScreen, m.Screen)

	expected := []Screen{WaveScreen, PeriodScreen, AmplitudeScreen, OffsetScreen, OutputScreen}
	for _, want := range expected {
		m.Input(rotary.Next)
		assert.Equal(t, want, m.Screen)
	}

	m.Input(rotary.Prev)
	assert.Equal(t, OffsetScreen, m.Screen)
}

func TestMenu_ConstSkipsShapeScreens(t *testing.T) {
	m := newMenu(wave.Const)

	m.Input(rotary.Next)
	assert.Equal(t, WaveScreen, m.Screen)
	m.Input(rotary.Next)
	assert.Equal(t, OffsetScreen, m.Screen)
	m.Input(rotary.Prev)
	assert.Equal(t, WaveScreen, m.Screen)
}

func TestMenu_EditWave(t *testing.T) {
	m := newMenu(wave.Const)
	m.Input(rotary.Next) // Wave screen

	assert.Equal(t, NoAction, m.Input(rotary.Select))
	assert.True(t, m.Editing)

	m.Input(rotary.Next)
	assert.Equal(t, ">Wave: Step         ", m.Render(pressure.Snapshot{})[3])
	assert.Equal(t, wave.Const, m.Kind, "not applied before confirming")
	m.Input(rotary.Prev)
	m.Input(rotary.Prev)
	assert.Equal(t, ">Wave: Sine         ", m.Render(pressure.Snapshot{})[3], "wraps below the first kind")
	m.Input(rotary.Next)
	assert.Equal(t, ">Wave: Const        ", m.Render(pressure.Snapshot{})[3], "wraps past the last kind")
	m.Input(rotary.Next)

	m.Input(rotary.Select)
	assert.False(t, m.Editing)
	assert.Equal(t, wave.Step, m.Kind)
	assert.Equal(t, WaveScreen, m.Screen)
}

func TestMenu_EditLimits(t *testing.T) {
	tests := []struct {
		name   string
		screen Screen
		dir    rotary.Input
		times  int
		get    func(*Menu) float32
		want   float32
	}{
		{"period up clamps", PeriodScreen, rotary.Next, 100, func(m *Menu) float32 { return m.Params.Period }, 60},
		{"period down clamps", PeriodScreen, rotary.Prev, 100, func(m *Menu) float32 { return m.Params.Period }, 2},
		{"amplitude step", AmplitudeScreen, rotary.Next, 3, func(m *Menu) float32 { return m.Params.Amplitude }, 23},
		{"amplitude floor", AmplitudeScreen, rotary.Prev, 30, func(m *Menu) float32 { return m.Params.Amplitude }, 0},
		{"offset ceiling", OffsetScreen, rotary.Next, 100, func(m *Menu) float32 { return m.Params.Offset }, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMenu(wave.Sine)
			m.Screen = tt.screen
			before := tt.get(m)
			m.Input(rotary.Select)
			for range tt.times {
				m.Input(tt.dir)
			}
			assert.Equal(t, before, tt.get(m), "not applied before confirming")
			m.Input(rotary.Select)
			assert.Equal(t, tt.want, tt.get(m))
		})
	}
}

func TestMenu_StartStop(t *testing.T) {
	m := newMenu(wave.Sine)

	assert.Equal(t, Start, m.Input(rotary.Select))
	assert.True(t, m.Running)

	// Navigation is locked while running
	assert.Equal(t, NoAction, m.Input(rotary.Next))
	assert.Equal(t, OutputScreen, m.Screen)

	assert.Equal(t, Stop, m.Input(rotary.Select))

	m.Finish()
	assert.False(t, m.Running)
	assert.Equal(t, OutputScreen, m.Screen)
	assert.Equal(t, Start, m.Input(rotary.Select), "a new session can be started right away")
}

func TestMenu_FinishFromEditing(t *testing.T) {
	m := newMenu(wave.Sine)
	m.Screen = OffsetScreen
	m.Input(rotary.Select)
	m.Input(rotary.Next)
	m.Input(rotary.Next)

	m.Finish()
	assert.False(t, m.Editing)
	assert.Equal(t, OutputScreen, m.Screen)
	assert.Equal(t, float32(10), m.Params.Offset, "unconfirmed edit is dropped")

	m.Screen = OffsetScreen
	m.Input(rotary.Select)
	assert.Equal(t, ">Offset: 10.0 psi   ", m.Render(pressure.Snapshot{})[3], "a new edit starts from the applied value")
}

func TestMenu_NoneIsIgnored(t *testing.T) {
	m := newMenu(wave.Sine)
	before := *m

	assert.Equal(t, NoAction, m.Input(rotary.None))
	assert.Equal(t, before, *m)
}

func TestMenu_Render(t *testing.T) {
	m := newMenu(wave.Sine)
	snap := pressure.Snapshot{Current: 12.34, Target: 10, Elapsed: 3.3}

	rows := m.Render(snap)
	assert.Equal(t, "Cur:  12.3 psi      ", rows[0])
	assert.Equal(t, "Dev:  23.4%         ", rows[1])
	assert.Equal(t, "Time: 3.3 sec       ", rows[2])
	assert.Equal(t, "Press to begin      ", rows[3])
	for _, r := range rows {
		assert.Len(t, r, Columns)
	}

	m.Running = true
	assert.Equal(t, "Press to abort      ", m.Render(snap)[3])
}

func TestMenu_RenderDeviationSentinel(t *testing.T) {
	m := newMenu(wave.Const)
	rows := m.Render(pressure.Snapshot{Current: 5, Target: 0})
	assert.Equal(t, "Dev:  --%           ", rows[1])

	rows = m.Render(pressure.Snapshot{})
	assert.Equal(t, "Dev:  0.0%          ", rows[1])
}

func TestMenu_RenderOptions(t *testing.T) {
	m := newMenu(wave.Ramp)

	m.Screen = WaveScreen
	assert.Equal(t, " Wave: Ramp         ", m.Render(pressure.Snapshot{})[3])

	m.Screen = PeriodScreen
	m.Input(rotary.Select)
	assert.Equal(t, ">Period: 10 s       ", m.Render(pressure.Snapshot{})[3])
	m.Input(rotary.Select)

	m.Screen = AmplitudeScreen
	assert.Equal(t, " Ampl: 20.0 psi     ", m.Render(pressure.Snapshot{})[3])

	m.Screen = OffsetScreen
	assert.Equal(t, " Offset: 10.0 psi   ", m.Render(pressure.Snapshot{})[3])
}

func TestScreen_String(t *testing.T) {
	assert.Equal(t, "wave", WaveScreen.String())
	assert.Equal(t, "output", OutputScreen.String())
	assert.Equal(t, "unknown", Screen(42).String())
}
