// Package trace keeps a time window of pressure samples for plotting.
package trace

import (
	"sync"

	"github.com/itohio/gopcr/pkg/pressure"
	"github.com/itohio/gopcr/pkg/rig"
)

// DefaultWindow is the plotted history in seconds.
const DefaultWindow = 60

// Sample is one tick of the control loop.
type Sample struct {
	Elapsed float32 // Seconds since session start
	Current float32
	Target  float32
	Channel rig.Channel
}

// Recorder is a FIFO of samples ordered oldest first. Samples older than the
// window, measured from the newest sample, are dropped.
type Recorder struct {
	window float32

	mu      sync.RWMutex
	samples []Sample

	cbMu      sync.RWMutex
	callbacks []func(samples []Sample)
}

// New creates a recorder keeping window seconds of history.
func New(window float32) *Recorder {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Recorder{
		window:  window,
		samples: make([]Sample, 0),
	}
}

// Record adds a snapshot. Matches the ramp engine's OnSample callback.
func (r *Recorder) Record(s pressure.Snapshot) {
	r.Add(Sample{
		Elapsed: s.Elapsed,
		Current: s.Current,
		Target:  s.Target,
		Channel: s.Channel,
	})
}

// Add appends a sample. Time going backwards means a new session started and
// the history is cleared.
func (r *Recorder) Add(s Sample) {
	r.mu.Lock()
	if n := len(r.samples); n > 0 && s.Elapsed < r.samples[n-1].Elapsed {
		r.samples = r.samples[:0]
	}
	r.samples = append(r.samples, s)

	cutoff := s.Elapsed - r.window
	cut := 0
	for cut < len(r.samples) && r.samples[cut].Elapsed < cutoff {
		cut++
	}
	if cut > 0 {
		r.samples = append(r.samples[:0], r.samples[cut:]...)
	}
	r.mu.Unlock()

	r.notifyCallbacks()
}

// Samples returns a copy of the buffer.
func (r *Recorder) Samples() []Sample {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Sample, len(r.samples))
	copy(result, r.samples)
	return result
}

// Clear drops all samples.
func (r *Recorder) Clear() {
	r.mu.Lock()
	r.samples = r.samples[:0]
	r.mu.Unlock()

	r.notifyCallbacks()
}

// OnUpdate registers a callback invoked with a copy of the buffer after every change.
// The callback should return quickly.
func (r *Recorder) OnUpdate(callback func(samples []Sample)) {
	r.cbMu.Lock()
	defer r.cbMu.Unlock()
	r.callbacks = append(r.callbacks, callback)
}

func (r *Recorder) notifyCallbacks() {
	r.cbMu.RLock()
	callbacks := make([]func([]Sample), len(r.callbacks))
	copy(callbacks, r.callbacks)
	r.cbMu.RUnlock()

	if len(callbacks) == 0 {
		return
	}

	samples := r.Samples()
	for _, cb := range callbacks {
		if cb != nil {
			cb(samples)
		}
	}
}

// Downsample decimates samples to at most maxPoints for display.
// Reuses dst if it has sufficient capacity.
func Downsample(dst []Sample, samples []Sample, maxPoints int) []Sample {
	if len(samples) <= maxPoints || maxPoints <= 0 {
		if cap(dst) >= len(samples) {
			dst = dst[:len(samples)]
			copy(dst, samples)
			return dst
		}
		result := make([]Sample, len(samples))
		copy(result, samples)
		return result
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0]
	} else {
		dst = make([]Sample, 0, maxPoints)
	}

	step := float64(len(samples)) / float64(maxPoints)
	for i := range maxPoints {
		idx := int(float64(i) * step)
		if idx < len(samples) {
			dst = append(dst, samples[idx])
		}
	}
	return dst
}
