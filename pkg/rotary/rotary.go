// Package rotary decodes a quadrature encoder with a push button into single
// operator inputs.
package rotary

import "time"

// Input is one operator event per poll.
type Input int

const (
	Prev   Input = -1
	None   Input = 0
	Next   Input = 1
	Select Input = 2
)

func (i Input) String() string {
	switch i {
	case Prev:
		return "prev"
	case None:
		return "none"
	case Next:
		return "next"
	case Select:
		return "select"
	default:
		return "invalid"
	}
}

// Levels are raw line levels sampled at one instant. The button is active low
// (pulled up, pressed = false).
type Levels struct {
	CLK bool
	DT  bool
	SW  bool
}

// Decoder turns level samples into inputs. A rising CLK edge is a detent: DT
// high means clockwise (Next), DT low counter-clockwise (Prev). The button
// fires on release, never on press, and wins over rotation in the same poll.
type Decoder struct {
	// Debounce ignores edges closer than this to the previously accepted one.
	Debounce time.Duration

	last     Levels
	lastTurn time.Time
	lastPush time.Time
	primed   bool
}

// NewDecoder creates a decoder with the given debounce interval.
func NewDecoder(debounce time.Duration) *Decoder {
	return &Decoder{Debounce: debounce}
}

// Update consumes one level sample taken at now.
func (d *Decoder) Update(l Levels, now time.Time) Input {
	if !d.primed {
		// First sample only establishes the reference levels
		d.last = l
		d.primed = true
		return None
	}

	prev := d.last
	d.last = l

	in := None
	if !prev.CLK && l.CLK && d.accept(&d.lastTurn, now) {
		if l.DT {
			in = Next
		} else {
			in = Prev
		}
	}

	if !prev.SW && l.SW && d.accept(&d.lastPush, now) {
		in = Select
	}

	return in
}

// Reset forgets the reference levels.
func (d *Decoder) Reset() {
	d.primed = false
	d.lastTurn = time.Time{}
	d.lastPush = time.Time{}
}

func (d *Decoder) accept(last *time.Time, now time.Time) bool {
	if d.Debounce > 0 && !last.IsZero() && now.Sub(*last) < d.Debounce {
		return false
	}
	*last = now
	return true
}
