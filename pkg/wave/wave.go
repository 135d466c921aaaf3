// Package wave turns waveform parameters into a replayable sequence of
// pressure set-points, each tagged with the actuator channel that reaches it.
package wave

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"
	"github.com/itohio/gopcr/pkg/rig"
)

// DefaultSwitchingInterval is the time between two consecutive set-points, in seconds.
const DefaultSwitchingInterval float32 = 0.5

// Kind selects the waveform algorithm.
type Kind int

const (
	Const Kind = iota
	Step
	Ramp
	Sine
)

// Kinds lists all waveform kinds in menu order.
var Kinds = []Kind{Const, Step, Ramp, Sine}

func (k Kind) String() string {
	switch k {
	case Const:
		return "const"
	case Step:
		return "step"
	case Ramp:
		return "ramp"
	case Sine:
		return "sine"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses a waveform kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(s, k.String()) {
			return k, nil
		}
	}
	return Const, fmt.Errorf("unknown waveform kind %q", s)
}

// Shape selects the Ramp kind formula.
type Shape int

const (
	// SineShape approximates the triangle with a sine for smoother tracking.
	SineShape Shape = iota
	// TriangleShape uses the piecewise linear triangle.
	TriangleShape
)

// ParseShape parses "sine" or "triangle".
func ParseShape(s string) (Shape, error) {
	switch strings.ToLower(s) {
	case "", "sine":
		return SineShape, nil
	case "triangle":
		return TriangleShape, nil
	}
	return SineShape, fmt.Errorf("unknown ramp shape %q", s)
}

// Params are the operator tunable waveform parameters.
type Params struct {
	Period    float32 // Seconds
	Amplitude float32 // Peak to peak
	Offset    float32 // Vertical bias
}

// Point is a single set-point and the channel used to reach it.
type Point struct {
	Target  float32
	Channel rig.Channel
}

// Generator builds set-point sequences.
type Generator struct {
	// SwitchingInterval is the time between two set-points in seconds.
	SwitchingInterval float32
	// Shape selects the Ramp formula.
	Shape Shape
}

// Points returns the number of set-points in one period.
func (g Generator) Points(period float32) int {
	sw := g.SwitchingInterval
	if sw <= 0 {
		sw = DefaultSwitchingInterval
	}
	n := int(math32.Floor(period/sw + 0.5))
	if n < 1 {
		n = 1
	}
	return n
}

// Generate returns one period of set-points for kind. Const yields a single
// hold point at the offset.
func (g Generator) Generate(kind Kind, p Params) []Point {
	if kind == Const {
		return []Point{{Target: p.Offset, Channel: rig.Hold}}
	}

	n := g.Points(p.Period)
	points := make([]Point, n)
	for i := range n {
		t := float32(i) * p.Period / float32(n)

		switch kind {
		case Step:
			points[i] = stepPoint(i, n, p)
		case Ramp:
			if g.Shape == TriangleShape {
				points[i] = Point{Target: p.Offset + Triangle(t, p.Period, p.Amplitude/2), Channel: Partition(i, n)}
			} else {
				points[i] = Point{Target: sine(t, p), Channel: Partition(i, n)}
			}
		case Sine:
			points[i] = Point{Target: sine(t, p), Channel: Partition(i, n)}
		}
	}

	return points
}

// Partition returns the channel for point i of n for Ramp and Sine kinds:
// [0, n/4] and [3n/4, n) raise, (n/4, 3n/4) lowers.
func Partition(i, n int) rig.Channel {
	if 4*i <= n || 4*i >= 3*n {
		return rig.Raise
	}
	return rig.Lower
}

// Triangle returns a triangle wave of peak a and period T that starts at a
// rising zero crossing: 4a/T·|((t−T/4) mod T + T) mod T − T/2| − a.
func Triangle(t, T, a float32) float32 {
	if T <= 0 {
		return 0
	}
	phase := math32.Mod(math32.Mod(t-T/4, T)+T, T)
	return 4*a/T*math32.Abs(phase-T/2) - a
}

func sine(t float32, p Params) float32 {
	if p.Period <= 0 {
		return p.Offset
	}
	return p.Offset + p.Amplitude/2*math32.Sin(2*math32.Pi*t/p.Period)
}

// stepPoint raises to the high level for the first half of the period and
// lowers to the low level for the second half.
func stepPoint(i, n int, p Params) Point {
	if 2*i < n {
		return Point{Target: p.Offset + p.Amplitude/2, Channel: rig.Raise}
	}
	return Point{Target: p.Offset - p.Amplitude/2, Channel: rig.Lower}
}
