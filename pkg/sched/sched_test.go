package sched

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbort_IgnoredWhileDisarmed(t *testing.T) {
	a := &Abort{}

	assert.False(t, a.Request())
	assert.False(t, a.Requested())
}

func TestAbort_LatchesOncePerArm(t *testing.T) {
	a := &Abort{}
	a.Arm()

	assert.True(t, a.Request())
	assert.True(t, a.Requested())

	// Held or bouncing button: further edges are suppressed by the lock
	assert.False(t, a.Request())
	assert.False(t, a.Request())
	assert.True(t, a.Requested())

	assert.True(t, a.Consume())
	assert.False(t, a.Requested())
	assert.False(t, a.Consume())

	// Lock released by Consume, next edge latches again
	assert.True(t, a.Request())
}

func TestAbort_DisarmKeepsLatch(t *testing.T) {
	a := &Abort{}
	a.Arm()
	require.True(t, a.Request())

	a.Disarm()
	assert.False(t, a.Armed())
	assert.True(t, a.Requested())

	a.Consume()
	assert.False(t, a.Request())
}

func TestAbort_ConcurrentRequests(t *testing.T) {
	a := &Abort{}
	a.Arm()

	var wg sync.WaitGroup
	var mu sync.Mutex
	latched := 0
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if a.Request() {
				mu.Lock()
				latched++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, latched)
}

func TestVirtual_Ticks(t *testing.T) {
	v := NewVirtual(100 * time.Millisecond)

	var seen []int
	v.OnTick = func(n int) { seen = append(seen, n) }

	for range 3 {
		require.True(t, v.Wait())
	}

	assert.Equal(t, []int{1, 2, 3}, seen)
	assert.Equal(t, 3, v.Ticks())
	assert.Equal(t, 300*time.Millisecond, v.Elapsed())

	v.ResetElapsed()
	assert.Equal(t, time.Duration(0), v.Elapsed())
	assert.Equal(t, 3, v.Ticks())

	v.Stop()
	assert.False(t, v.Wait())
	assert.Equal(t, 3, v.Ticks())
}

func TestTicker_DeliversTicks(t *testing.T) {
	tk := NewTicker(5 * time.Millisecond)
	defer tk.Stop()

	for range 3 {
		require.True(t, tk.Wait())
	}
	assert.GreaterOrEqual(t, tk.Elapsed(), 15*time.Millisecond)
	assert.Equal(t, 5*time.Millisecond, tk.Interval())
}

func TestTicker_CoalescesMissedTicks(t *testing.T) {
	tk := NewTicker(2 * time.Millisecond)
	defer tk.Stop()

	// Do not consume for a while: only one tick stays pending
	time.Sleep(30 * time.Millisecond)

	require.True(t, tk.Wait())
	assert.Greater(t, tk.Missed(), 0)

	select {
	case <-tk.due:
		// A fresh tick may already have arrived, but never more than one
		select {
		case <-tk.due:
			t.Fatal("more than one pending tick")
		default:
		}
	default:
	}
}

func TestTicker_ResetDropsPendingTick(t *testing.T) {
	tk := NewTicker(time.Hour)
	defer tk.Stop()

	// A tick left over from before the reset
	tk.due <- struct{}{}

	tk.ResetElapsed()
	assert.Empty(t, tk.due, "stale tick must not shorten the first interval")

	done := make(chan bool, 1)
	go func() {
		done <- tk.Wait()
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before a full interval")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestTicker_StopReleasesWaiter(t *testing.T) {
	tk := NewTicker(time.Hour)

	done := make(chan bool)
	go func() {
		done <- tk.Wait()
	}()

	tk.Stop()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Stop")
	}

	tk.ResetElapsed()
	assert.Equal(t, time.Duration(0), tk.Elapsed())
}

func TestNewContext(t *testing.T) {
	v := NewVirtual(0)
	ctx := NewContext(v)

	assert.Same(t, Clock(v), ctx.Clock)
	require.NotNil(t, ctx.Abort)
	assert.Equal(t, 100*time.Millisecond, v.Interval())
}
