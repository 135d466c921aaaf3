// Package rig describes the pneumatic hardware seen by the control core: two
// actuator channels and a single pressure sensor.
package rig

import "errors"

// ErrNotConnected is returned by devices that are used before Connect.
var ErrNotConnected = errors.New("not connected")

// Channel selects which actuator path is energized.
type Channel int

const (
	// Hold energizes nothing.
	Hold Channel = iota
	// Raise energizes the compressor path.
	Raise
	// Lower energizes the exhaust valve.
	Lower
)

func (c Channel) String() string {
	switch c {
	case Hold:
		return "hold"
	case Raise:
		return "raise"
	case Lower:
		return "lower"
	default:
		return "unknown"
	}
}

// Actuator drives the compressor and exhaust paths. At most one path is on.
type Actuator interface {
	Set(ch Channel) error
	Channel() Channel
}

// Sensor returns the current pressure in engineering units (psi).
type Sensor interface {
	Read() (float32, error)
}

// Device defines the interface for rig devices (real or mocked).
type Device interface {
	Actuator
	Sensor
	Connect() error
	Close() error
	IsConnected() bool
}

// Ensure implementations satisfy Device.
var (
	_ Device = (*Mock)(nil)
	_ Device = (*Combined)(nil)
)
