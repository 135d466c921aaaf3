package mqtt

import (
	"sync"
	"time"

	"github.com/itohio/gopcr/pkg/pressure"
	"github.com/itohio/gopcr/pkg/session"
)

// FakePublisher records published messages for test assertions.
type FakePublisher struct {
	mu sync.Mutex

	// Samples contains all telemetry snapshots that were published.
	Samples []pressure.Snapshot

	// Events contains all session events that were published.
	Events []session.Event

	// Payloads contains the JSON payloads in publish order.
	Payloads [][]byte

	// PublishError, if set, will be returned by both publish methods.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool
}

var _ Publisher = (*FakePublisher)(nil)

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishTelemetry records the sample.
func (f *FakePublisher) PublishTelemetry(t time.Time, s pressure.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.PublishError != nil {
		return f.PublishError
	}

	payload, err := FormatTelemetry(t, s)
	if err != nil {
		return err
	}
	f.Samples = append(f.Samples, s)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishSession records the session event.
func (f *FakePublisher) PublishSession(e session.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.PublishError != nil {
		return f.PublishError
	}

	payload, err := FormatSession(e)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, e)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// Counts returns the number of recorded samples and events.
func (f *FakePublisher) Counts() (samples, events int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Samples), len(f.Events)
}
