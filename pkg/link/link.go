// Package link talks to the rig MCU over a serial port. The MCU streams one
// pressure line per tick and energizes the valves on single letter commands.
package link

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/chewxy/math32"
	"github.com/itohio/gopcr/pkg/rig"
	"github.com/womat/debug"
	"go.bug.st/serial"
)

// DefaultBaudRate is the UART rate used by the firmware.
const DefaultBaudRate = 115200

// ErrNoSample is returned by Read before the first line has arrived.
var ErrNoSample = errors.New("no sample received yet")

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial is a rig.Device backed by the MCU serial link.
type Serial struct {
	port     string
	baudRate int

	mu        sync.RWMutex
	conn      io.ReadWriteCloser
	cancel    context.CancelFunc
	done      chan struct{}
	connected bool
	channel   rig.Channel
	latest    float32
	samples   int
	rejected  int
}

var _ rig.Device = (*Serial)(nil)

// New creates a link for the given port.
func New(port string, baudRate int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	return &Serial{
		port:     port,
		baudRate: baudRate,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}
	return result, nil
}

// Connect opens the serial port and starts reading pressure lines.
func (s *Serial) Connect() error {
	s.mu.RLock()
	connected := s.connected
	s.mu.RUnlock()
	if connected {
		return fmt.Errorf("already connected")
	}

	conn, err := serial.Open(s.port, &serial.Mode{
		BaudRate: s.baudRate,
	})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", s.port, err)
	}
	return s.attach(conn)
}

func (s *Serial) attach(conn io.ReadWriteCloser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		conn.Close()
		return fmt.Errorf("already connected")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.conn = conn
	s.cancel = cancel
	s.done = make(chan struct{})
	s.connected = true
	s.samples = 0

	go s.readLines(ctx, conn, s.done)

	debug.InfoLog.Printf("connected to rig on %s at %d baud", s.port, s.baudRate)
	return nil
}

// Close releases the valves, closes the port and waits for the reader to exit.
func (s *Serial) Close() error {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return nil
	}

	hold, _ := rig.Command(rig.Hold)
	_, werr := io.WriteString(s.conn, hold)
	s.channel = rig.Hold
	s.cancel()
	cerr := s.conn.Close()
	done := s.done
	s.conn = nil
	s.connected = false
	s.mu.Unlock()

	<-done

	if n := s.Rejected(); n > 0 {
		debug.WarningLog.Printf("%d malformed lines received on %s", n, s.port)
	}
	if werr != nil {
		werr = fmt.Errorf("failed to release valves: %w", werr)
	}
	if cerr != nil {
		cerr = fmt.Errorf("failed to close serial port: %w", cerr)
	}
	return errors.Join(werr, cerr)
}

// IsConnected returns whether the device is currently connected.
func (s *Serial) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Set sends the valve command for ch.
func (s *Serial) Set(ch rig.Channel) error {
	cmd, ok := rig.Command(ch)
	if !ok {
		return fmt.Errorf("invalid channel %d", ch)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return rig.ErrNotConnected
	}
	if _, err := io.WriteString(s.conn, cmd); err != nil {
		return fmt.Errorf("failed to send %s command: %w", ch, err)
	}
	s.channel = ch
	return nil
}

// Channel returns the last commanded channel.
func (s *Serial) Channel() rig.Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channel
}

// Read returns the most recent pressure reported by the MCU.
func (s *Serial) Read() (float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.connected {
		return 0, rig.ErrNotConnected
	}
	if s.samples == 0 {
		return 0, ErrNoSample
	}
	return s.latest, nil
}

// Rejected returns the number of lines that failed to parse.
func (s *Serial) Rejected() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rejected
}

func (s *Serial) readLines(ctx context.Context, r io.Reader, done chan struct{}) {
	defer close(done)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		v, err := parseLine(line)
		s.mu.Lock()
		if err != nil {
			s.rejected++
		} else {
			s.latest = v
			s.samples++
		}
		s.mu.Unlock()

		if err != nil {
			debug.DebugLog.Printf("failed to parse line '%s': %v", line, err)
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		debug.ErrorLog.Printf("error reading from serial port: %v", err)
	}
}

// parseLine parses one telemetry line, e.g. "12.34".
func parseLine(line string) (float32, error) {
	f, err := strconv.ParseFloat(line, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid pressure: %w", err)
	}
	v := float32(f)
	if math32.IsNaN(v) || math32.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid pressure %q", line)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative pressure %.2f", v)
	}
	return v, nil
}
