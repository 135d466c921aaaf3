package pressure

import (
	"sync"
	"testing"

	"github.com/chewxy/math32"
	"github.com/itohio/gopcr/pkg/rig"
	"github.com/itohio/gopcr/pkg/wave"
	"github.com/stretchr/testify/assert"
)

func TestSnap(t *testing.T) {
	assert.Equal(t, float32(0), Snap(4e-7))
	assert.Equal(t, float32(0), Snap(-4e-7))
	assert.Equal(t, float32(1e-6), Snap(1e-6))
	assert.Equal(t, float32(-3), Snap(-3))
}

func TestInBand(t *testing.T) {
	tests := []struct {
		name    string
		current float32
		target  float32
		tol     float32
		want    bool
	}{
		{"exact", 10, 10, 0.1, true},
		{"lower edge", 9, 10, 0.1, true},
		{"upper edge", 11, 10, 0.1, true},
		{"below", 8.9, 10, 0.1, false},
		{"above", 11.2, 10, 0.1, false},
		{"negative target uses magnitude", 5, -5, 0.1, true},
		{"zero target with noise", 4e-7, 0, 0.1, true},
		{"zero target not reached", 0.01, 0, 0.1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InBand(tt.current, tt.target, tt.tol))
		})
	}
}

func TestDeviation(t *testing.T) {
	assert.InDelta(t, 10.0, Deviation(11, 10), 1e-4)
	assert.InDelta(t, -50.0, Deviation(5, 10), 1e-4)
	assert.Equal(t, float32(0), Deviation(0, 0))
	assert.Equal(t, float32(0), Deviation(3e-7, 1e-7))
	assert.True(t, math32.IsInf(Deviation(5, 0), 1))
	assert.True(t, math32.IsInf(Deviation(-5, 0), -1))
}

func TestFormatDeviation(t *testing.T) {
	assert.Equal(t, DeviationSentinel, FormatDeviation(Deviation(5, 0)))
	assert.Equal(t, "0.0", FormatDeviation(Deviation(0, 0)))
	assert.Equal(t, "0.0", FormatDeviation(math32.NaN()))
	assert.Equal(t, "-12.5", FormatDeviation(-12.5))
}

func TestTracker(t *testing.T) {
	tr := NewTracker(State{})
	tr.Update(func(s *State) {
		s.SetParams(wave.Sine, wave.Params{Period: 10, Amplitude: 4, Offset: 20})
		s.Current = 5
		s.Target = 0
		s.Channel = rig.Raise
		s.Run = true
	})

	snap := tr.Snapshot()
	assert.Equal(t, wave.Sine, snap.Kind)
	assert.Equal(t, float32(20), snap.Offset)
	assert.Equal(t, rig.Raise, snap.Channel)
	assert.True(t, snap.Run)
	assert.Equal(t, DeviationSentinel, snap.DeviationText())

	st := tr.State()
	assert.Equal(t, wave.Params{Period: 10, Amplitude: 4, Offset: 20}, st.Params())
}

func TestTracker_Concurrent(t *testing.T) {
	tr := NewTracker(State{})

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			tr.Update(func(s *State) { s.Current = float32(i) })
		}()
		go func() {
			defer wg.Done()
			_ = tr.Snapshot()
		}()
	}
	wg.Wait()
}
