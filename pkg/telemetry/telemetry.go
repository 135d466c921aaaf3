// Package telemetry emits one ASCII line per pressure sample.
package telemetry

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
)

// Sink receives pressure samples.
type Sink interface {
	Emit(pressure float32) error
}

// Line formats a pressure value as a telemetry line: two decimals, CRLF.
func Line(pressure float32) string {
	return strconv.FormatFloat(float64(pressure), 'f', 2, 32) + "\r\n"
}

// Writer writes telemetry lines to an io.Writer.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter creates a sink over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Emit writes a single line.
func (w *Writer) Emit(pressure float32) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := io.WriteString(w.w, Line(pressure)); err != nil {
		return fmt.Errorf("failed to write telemetry: %w", err)
	}
	return nil
}

// Close closes the underlying writer if it is closable.
func (w *Writer) Close() error {
	if c, ok := w.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Multi fans samples out to several sinks.
type Multi []Sink

// Emit forwards to every sink and joins their errors.
func (m Multi) Emit(pressure float32) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(pressure); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Func adapts a function to a Sink.
type Func func(pressure float32) error

// Emit calls f.
func (f Func) Emit(pressure float32) error {
	return f(pressure)
}
