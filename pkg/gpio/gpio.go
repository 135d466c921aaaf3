// Package gpio connects the rig to Linux GPIO lines: the compressor and
// exhaust valve outputs and the rotary encoder inputs. The real
// implementation uses the GPIO character device; the fake allows testing
// without hardware.
package gpio

import (
	"context"
	"sync"
	"time"

	"github.com/itohio/gopcr/pkg/rotary"
	"github.com/womat/debug"
)

// Default pin assignment (BCM numbering).
const (
	PinCompressor = 17
	PinExhaust    = 27
	PinCLK        = 5
	PinDT         = 6
	PinSW         = 13
)

// LevelReader samples the raw encoder line levels.
type LevelReader interface {
	Levels() (rotary.Levels, error)
	Close() error
}

// Encoder polls a LevelReader and turns the level changes into inputs.
type Encoder struct {
	reader  LevelReader
	decoder *rotary.Decoder
	poll    time.Duration
	inputs  chan rotary.Input

	mu     sync.Mutex
	errors int
}

// NewEncoder creates an encoder poller.
func NewEncoder(r LevelReader, debounce, poll time.Duration) *Encoder {
	if poll <= 0 {
		poll = time.Millisecond
	}
	return &Encoder{
		reader:  r,
		decoder: rotary.NewDecoder(debounce),
		poll:    poll,
		inputs:  make(chan rotary.Input, 16),
	}
}

// Inputs returns the decoded input channel. It is closed when Run returns.
func (e *Encoder) Inputs() <-chan rotary.Input {
	return e.inputs
}

// Errors returns the number of failed samples.
func (e *Encoder) Errors() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errors
}

// Run polls until ctx is cancelled. Inputs are dropped if nobody reads them.
func (e *Encoder) Run(ctx context.Context) {
	defer close(e.inputs)

	t := time.NewTicker(e.poll)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			e.step(now)
		}
	}
}

func (e *Encoder) step(now time.Time) {
	levels, err := e.reader.Levels()
	if err != nil {
		e.mu.Lock()
		e.errors++
		e.mu.Unlock()
		debug.DebugLog.Printf("encoder read: %v", err)
		return
	}

	in := e.decoder.Update(levels, now)
	if in == rotary.None {
		return
	}

	select {
	case e.inputs <- in:
	default:
		debug.DebugLog.Printf("encoder input %s dropped", in)
	}
}
