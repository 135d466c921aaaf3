package rig

import (
	"fmt"
	"sync"

	"github.com/chewxy/math32"
)

// MockParams describes the simulated tank.
type MockParams struct {
	Initial     float64 // Starting pressure (psi)
	RatePerTick float64 // Pressure change per tick while a channel is energized (psi)
	Leak        float64 // Pressure lost every tick (psi)
	NoiseLevel  float64 // Peak sensor noise (psi)
	Stuck       bool    // Sensor keeps reporting the initial value
}

// Mock simulates the tank for testing and development.
//
// Each Read stands for one tick of the control loop: the pressure moves by
// RatePerTick in the direction of the energized channel, the leak is
// subtracted and the result is clamped at 0 gauge.
type Mock struct {
	cfg *MockParams

	mu        sync.RWMutex
	connected bool
	channel   Channel
	pressure  float32
	reads     int
	history   []Channel
}

// NewMock creates a new simulated tank.
func NewMock(cfg *MockParams) *Mock {
	if cfg == nil {
		cfg = &MockParams{
			RatePerTick: 0.278,
		}
	}

	return &Mock{
		cfg:      cfg,
		pressure: float32(cfg.Initial),
	}
}

// Connect simulates connecting to the device.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}
	m.connected = true
	return nil
}

// Close releases both channels and disconnects.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.channel = Hold
	m.connected = false
	return nil
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// Set energizes the requested channel.
func (m *Mock) Set(ch Channel) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ch != Hold && ch != Raise && ch != Lower {
		return fmt.Errorf("invalid channel %d", ch)
	}
	m.channel = ch
	return nil
}

// Channel returns the energized channel.
func (m *Mock) Channel() Channel {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.channel
}

// Read advances the simulation by one tick and returns the sensed pressure.
func (m *Mock) Read() (float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads++
	m.history = append(m.history, m.channel)

	if m.cfg.Stuck {
		return float32(m.cfg.Initial), nil
	}

	rate := float32(m.cfg.RatePerTick)
	switch m.channel {
	case Raise:
		m.pressure += rate
	case Lower:
		m.pressure -= rate
	}
	m.pressure -= float32(m.cfg.Leak)
	if m.pressure < 0 {
		m.pressure = 0
	}

	// Deterministic noise so that tests stay reproducible
	noise := float32(m.cfg.NoiseLevel) * math32.Sin(float32(m.reads)*1.3)
	return m.pressure + noise, nil
}

// Pressure returns the simulated tank pressure without advancing time.
func (m *Mock) Pressure() float32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pressure
}

// History returns the channel that was energized during every Read so far.
func (m *Mock) History() []Channel {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Channel, len(m.history))
	copy(result, m.history)
	return result
}
