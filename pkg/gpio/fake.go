package gpio

import (
	"errors"
	"sync"

	"github.com/itohio/gopcr/pkg/rotary"
)

// FakeLevels is a test double that returns scripted encoder levels.
type FakeLevels struct {
	// Samples are returned one per Levels call; the last one repeats.
	Samples []rotary.Levels
	// ReadError, if set, is returned by Levels.
	ReadError error

	mu     sync.Mutex
	index  int
	closed bool
}

// NewFakeLevels creates a FakeLevels with the given samples.
func NewFakeLevels(samples ...rotary.Levels) *FakeLevels {
	return &FakeLevels{Samples: samples}
}

// Levels returns the next scripted sample.
func (f *FakeLevels) Levels() (rotary.Levels, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ReadError != nil {
		return rotary.Levels{}, f.ReadError
	}
	if len(f.Samples) == 0 {
		return rotary.Levels{}, errors.New("no samples configured")
	}

	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s, nil
}

// Close marks the reader as closed.
func (f *FakeLevels) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (f *FakeLevels) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
