//go:build !tinygo

package telemetry

import (
	"fmt"

	"go.bug.st/serial"
)

// OpenSerial opens a serial port as a telemetry sink.
func OpenSerial(port string, baudRate int) (*Writer, error) {
	if baudRate == 0 {
		baudRate = 115200
	}

	conn, err := serial.Open(port, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("failed to open telemetry port %s: %w", port, err)
	}
	return NewWriter(conn), nil
}
