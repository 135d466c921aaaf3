package rig

import (
	"errors"
	"sync"
)

// Combined assembles a Device from an independent actuator and sensor, e.g.
// GPIO driven valves with the pressure read over the serial link.
type Combined struct {
	Actuator
	Sensor

	mu        sync.RWMutex
	connected bool
	closers   []func() error
}

// Combine builds a device from parts. Closers run in order on Close.
func Combine(a Actuator, s Sensor, closers ...func() error) *Combined {
	return &Combined{
		Actuator: a,
		Sensor:   s,
		closers:  closers,
	}
}

// Connect marks the device as connected. The parts are expected to be open already.
func (c *Combined) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = true
	return nil
}

// Close releases the actuator and runs the closers.
func (c *Combined) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}
	c.connected = false

	errs := []error{c.Actuator.Set(Hold)}
	for _, closer := range c.closers {
		errs = append(errs, closer())
	}
	return errors.Join(errs...)
}

// IsConnected returns whether the device is currently connected.
func (c *Combined) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Averaging smooths a sensor by averaging its last N reads.
type Averaging struct {
	src    Sensor
	window []float32
	size   int
}

// NewAveraging wraps src. A size below 2 disables averaging.
func NewAveraging(src Sensor, size int) Sensor {
	if size < 2 {
		return src
	}
	return &Averaging{
		src:    src,
		window: make([]float32, 0, size),
		size:   size,
	}
}

// Read reads the wrapped sensor and returns the running average.
func (a *Averaging) Read() (float32, error) {
	v, err := a.src.Read()
	if err != nil {
		return 0, err
	}

	if len(a.window) == a.size {
		a.window = a.window[1:] // Remove oldest
	}
	a.window = append(a.window, v)

	var sum float32
	for _, s := range a.window {
		sum += s
	}
	return sum / float32(len(a.window)), nil
}

// ADCToPressure converts a raw ADC reading of a ratiometric transducer to psi.
// The transducer outputs 0 V at 0 psi and vref at fullScale.
func ADCToPressure(raw uint16, resolution int, fullScale float32) float32 {
	if resolution <= 0 {
		resolution = 12
	}
	max := float32(uint32(1)<<uint(resolution) - 1)
	return float32(raw) / max * fullScale
}
