package rig

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannel_String(t *testing.T) {
	assert.Equal(t, "hold", Hold.String())
	assert.Equal(t, "raise", Raise.String())
	assert.Equal(t, "lower", Lower.String())
	assert.Equal(t, "unknown", Channel(7).String())
}

func TestMock_ConnectClose(t *testing.T) {
	m := NewMock(nil)

	assert.False(t, m.IsConnected())
	require.NoError(t, m.Connect())
	assert.True(t, m.IsConnected())
	assert.Error(t, m.Connect())

	require.NoError(t, m.Set(Raise))
	require.NoError(t, m.Close())
	assert.False(t, m.IsConnected())
	assert.Equal(t, Hold, m.Channel())
}

func TestMock_Physics(t *testing.T) {
	m := NewMock(&MockParams{RatePerTick: 2.5})

	require.NoError(t, m.Set(Raise))
	for range 4 {
		_, err := m.Read()
		require.NoError(t, err)
	}
	assert.InDelta(t, 10.0, m.Pressure(), 1e-5)

	require.NoError(t, m.Set(Hold))
	v, err := m.Read()
	require.NoError(t, err)
	assert.InDelta(t, 10.0, v, 1e-5)

	require.NoError(t, m.Set(Lower))
	for range 10 {
		_, err := m.Read()
		require.NoError(t, err)
	}
	assert.Equal(t, float32(0), m.Pressure(), "tank never goes below 0 gauge")

	history := m.History()
	require.Len(t, history, 15)
	assert.Equal(t, Raise, history[0])
	assert.Equal(t, Hold, history[4])
	assert.Equal(t, Lower, history[14])
}

func TestMock_Leak(t *testing.T) {
	m := NewMock(&MockParams{Initial: 1, RatePerTick: 1, Leak: 0.25})

	v, err := m.Read()
	require.NoError(t, err)
	assert.InDelta(t, 0.75, v, 1e-6)
}

func TestMock_Stuck(t *testing.T) {
	m := NewMock(&MockParams{Initial: 3, RatePerTick: 1, Stuck: true})
	require.NoError(t, m.Set(Raise))

	for range 5 {
		v, err := m.Read()
		require.NoError(t, err)
		assert.Equal(t, float32(3), v)
	}
}

func TestMock_InvalidChannel(t *testing.T) {
	m := NewMock(nil)
	assert.Error(t, m.Set(Channel(9)))
}

type stubSensor struct {
	values []float32
	err    error
}

func (s *stubSensor) Read() (float32, error) {
	if s.err != nil {
		return 0, s.err
	}
	v := s.values[0]
	s.values = s.values[1:]
	return v, nil
}

func TestAveraging(t *testing.T) {
	src := &stubSensor{values: []float32{1, 2, 3, 4}}
	avg := NewAveraging(src, 3)

	expected := []float32{1, 1.5, 2, 3}
	for _, want := range expected {
		v, err := avg.Read()
		require.NoError(t, err)
		assert.InDelta(t, want, v, 1e-6)
	}
}

func TestAveraging_Disabled(t *testing.T) {
	src := &stubSensor{}
	assert.Same(t, Sensor(src), NewAveraging(src, 1))
}

func TestAveraging_Error(t *testing.T) {
	src := &stubSensor{err: errors.New("adc")}
	_, err := NewAveraging(src, 4).Read()
	assert.Error(t, err)
}

func TestCombine(t *testing.T) {
	m := NewMock(nil)
	closed := 0
	d := Combine(m, m, func() error { closed++; return nil })

	require.NoError(t, d.Connect())
	assert.True(t, d.IsConnected())
	require.NoError(t, d.Set(Lower))
	assert.Equal(t, Lower, d.Channel())

	require.NoError(t, d.Close())
	assert.Equal(t, Hold, m.Channel())
	assert.Equal(t, 1, closed)

	// Second close is a no-op
	require.NoError(t, d.Close())
	assert.Equal(t, 1, closed)
}

func TestADCToPressure(t *testing.T) {
	tests := []struct {
		name       string
		raw        uint16
		resolution int
		want       float32
	}{
		{"zero", 0, 12, 0},
		{"full scale", 4095, 12, 100},
		{"half", 2048, 12, 50.012},
		{"10 bit full", 1023, 10, 100},
		{"default resolution", 4095, 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ADCToPressure(tt.raw, tt.resolution, 100), 0.01)
		})
	}
}
