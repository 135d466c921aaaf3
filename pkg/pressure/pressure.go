// Package pressure holds the rig's pressure state and the read-only view of it
// consumed by displays, the web API and MQTT.
package pressure

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/itohio/gopcr/pkg/rig"
	"github.com/itohio/gopcr/pkg/wave"
)

// Epsilon is the magnitude below which a pressure is treated as exactly zero.
const Epsilon float32 = 5e-7

// DeviationSentinel is displayed when the deviation is infinite.
const DeviationSentinel = "--"

// State is the single pressure state of a session.
type State struct {
	Current   float32
	Target    float32
	Period    float32
	Amplitude float32
	Offset    float32
	Elapsed   float32 // Seconds since session start
	Kind      wave.Kind
	Run       bool
	Channel   rig.Channel
}

// Params returns the waveform parameters of the state.
func (s *State) Params() wave.Params {
	return wave.Params{Period: s.Period, Amplitude: s.Amplitude, Offset: s.Offset}
}

// SetParams copies the waveform parameters into the state.
func (s *State) SetParams(kind wave.Kind, p wave.Params) {
	s.Kind = kind
	s.Period = p.Period
	s.Amplitude = p.Amplitude
	s.Offset = p.Offset
}

// Snap returns exactly 0 for values within Epsilon of zero.
func Snap(v float32) float32 {
	if math32.Abs(v) < Epsilon {
		return 0
	}
	return v
}

// InBand reports whether |current| lies within |target|·(1±tol).
func InBand(current, target, tol float32) bool {
	c := math32.Abs(Snap(current))
	t := math32.Abs(Snap(target))
	return c >= t*(1-tol) && c <= t*(1+tol)
}

// Deviation returns the percent deviation of current from target. It is 0
// when both are zero and ±Inf when only the target is zero.
func Deviation(current, target float32) float32 {
	current = Snap(current)
	target = Snap(target)

	if target == 0 {
		switch {
		case current == 0:
			return 0
		case current > 0:
			return math32.Inf(1)
		default:
			return math32.Inf(-1)
		}
	}
	return (current - target) / target * 100
}

// FormatDeviation renders a deviation with one decimal or the sentinel.
func FormatDeviation(d float32) string {
	if math32.IsInf(d, 0) {
		return DeviationSentinel
	}
	if math32.IsNaN(d) {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", d)
}
