package mqtt

import (
	"sync"
	"time"

	"github.com/itohio/gopcr/pkg/pressure"
	"github.com/itohio/gopcr/pkg/session"
	"github.com/womat/debug"
)

// Forwarder feeds engine samples and session events to a Publisher. Publish
// errors are logged and dropped.
type Forwarder struct {
	pub   Publisher
	every int
	now   func() time.Time

	mu    sync.Mutex
	count int
}

var _ session.Observer = (*Forwarder)(nil)

// NewForwarder publishes every n-th sample. n <= 1 publishes all of them.
func NewForwarder(pub Publisher, n int) *Forwarder {
	if n < 1 {
		n = 1
	}
	return &Forwarder{
		pub:   pub,
		every: n,
		now:   time.Now,
	}
}

// OnSample is registered with the ramp engine.
func (f *Forwarder) OnSample(s pressure.Snapshot) {
	f.mu.Lock()
	f.count++
	skip := (f.count-1)%f.every != 0
	f.mu.Unlock()

	if skip {
		return
	}
	if err := f.pub.PublishTelemetry(f.now(), s); err != nil {
		debug.ErrorLog.Printf("mqtt telemetry: %v", err)
	}
}

// OnSessionEvent publishes the session event.
func (f *Forwarder) OnSessionEvent(e session.Event) {
	if err := f.pub.PublishSession(e); err != nil {
		debug.ErrorLog.Printf("mqtt session: %v", err)
	}
}
