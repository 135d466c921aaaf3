package gpio

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/itohio/gopcr/pkg/rotary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/womat/debug"
)

func TestMain(m *testing.M) {
	debug.SetDebug(io.Discard, debug.Standard)
	os.Exit(m.Run())
}

var idle = rotary.Levels{SW: true}

func TestFakeLevels(t *testing.T) {
	f := NewFakeLevels(idle, rotary.Levels{CLK: true, SW: true})

	l, err := f.Levels()
	require.NoError(t, err)
	assert.Equal(t, idle, l)

	for range 3 {
		l, err = f.Levels()
		require.NoError(t, err)
		assert.True(t, l.CLK, "last sample repeats")
	}

	assert.False(t, f.Closed())
	require.NoError(t, f.Close())
	assert.True(t, f.Closed())

	_, err = NewFakeLevels().Levels()
	assert.Error(t, err)
}

func TestEncoder_Step(t *testing.T) {
	f := NewFakeLevels(
		idle,
		rotary.Levels{CLK: true, DT: true, SW: true},
		rotary.Levels{CLK: false, SW: true},
		rotary.Levels{CLK: true, DT: false, SW: true},
		rotary.Levels{CLK: true, SW: false},
		rotary.Levels{CLK: true, SW: true},
	)
	e := NewEncoder(f, 0, time.Millisecond)

	base := time.Unix(0, 0)
	for i := range 6 {
		e.step(base.Add(time.Duration(i) * 10 * time.Millisecond))
	}

	var got []rotary.Input
	for len(e.inputs) > 0 {
		got = append(got, <-e.inputs)
	}
	assert.Equal(t, []rotary.Input{rotary.Next, rotary.Prev, rotary.Select}, got)
}

func TestEncoder_ReadErrors(t *testing.T) {
	f := NewFakeLevels(idle)
	f.ReadError = errors.New("line gone")
	e := NewEncoder(f, 0, 0)

	e.step(time.Now())
	e.step(time.Now())
	assert.Equal(t, 2, e.Errors())
	assert.Empty(t, e.inputs)
}

func TestEncoder_DropsWhenFull(t *testing.T) {
	samples := []rotary.Levels{idle}
	for range 40 {
		samples = append(samples, rotary.Levels{CLK: true, DT: true, SW: true}, idle)
	}
	e := NewEncoder(NewFakeLevels(samples...), 0, 0)

	base := time.Unix(0, 0)
	for i := range samples {
		e.step(base.Add(time.Duration(i) * time.Millisecond))
	}
	assert.Len(t, e.inputs, cap(e.inputs))
}

func TestEncoder_Run(t *testing.T) {
	f := NewFakeLevels(idle, rotary.Levels{CLK: true, DT: true, SW: true})
	e := NewEncoder(f, 0, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go e.Run(ctx)

	select {
	case in := <-e.Inputs():
		assert.Equal(t, rotary.Next, in)
	case <-time.After(time.Second):
		t.Fatal("no input decoded")
	}

	cancel()
	for range e.Inputs() {
	}
}
