//go:build !linux || tinygo

package gpio

import (
	"errors"

	"github.com/itohio/gopcr/pkg/rig"
	"github.com/itohio/gopcr/pkg/rotary"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// Valves is not available on non-Linux platforms.
type Valves struct{}

// NewValves returns an error on non-Linux platforms.
func NewValves(chipName string, compressor, exhaust int) (*Valves, error) {
	return nil, errUnsupported
}

// Set is not implemented on non-Linux platforms.
func (v *Valves) Set(rig.Channel) error { return errUnsupported }

// Channel always reports Hold.
func (v *Valves) Channel() rig.Channel { return rig.Hold }

// Close is a no-op.
func (v *Valves) Close() error { return nil }

// EncoderPins is not available on non-Linux platforms.
type EncoderPins struct{}

// NewEncoderPins returns an error on non-Linux platforms.
func NewEncoderPins(chipName string, clk, dt, sw int) (*EncoderPins, error) {
	return nil, errUnsupported
}

// Levels is not implemented on non-Linux platforms.
func (p *EncoderPins) Levels() (rotary.Levels, error) { return rotary.Levels{}, errUnsupported }

// Close is a no-op.
func (p *EncoderPins) Close() error { return nil }
