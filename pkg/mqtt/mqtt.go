// Package mqtt publishes pressure telemetry and session events to a broker.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/itohio/gopcr/pkg/pressure"
	"github.com/itohio/gopcr/pkg/session"
)

// DefaultPrefix is the topic prefix used when none is configured.
const DefaultPrefix = "rig/pressure"

// Topic suffixes below the configured prefix.
const (
	TopicTelemetry = "telemetry"
	TopicSession   = "session"
)

// Publisher publishes rig data to MQTT.
type Publisher interface {
	// PublishTelemetry sends one pressure sample. Failures must not stop the control loop.
	PublishTelemetry(t time.Time, s pressure.Snapshot) error

	// PublishSession sends a session lifecycle event.
	PublishSession(e session.Event) error

	// Close disconnects from the broker.
	Close() error
}

// TelemetryPayload is the JSON body of a telemetry message.
type TelemetryPayload struct {
	Timestamp string  `json:"timestamp"`
	Current   float32 `json:"current"`
	Target    float32 `json:"target"`
	Deviation string  `json:"deviation"`
	Elapsed   float32 `json:"elapsed"`
	Channel   string  `json:"channel"`
	Run       bool    `json:"run"`
}

// SessionPayload is the JSON body of a session message.
type SessionPayload struct {
	Session SessionPayloadInner `json:"session"`
}

// SessionPayloadInner contains the session event details.
type SessionPayloadInner struct {
	Timestamp string  `json:"timestamp"`
	Event     string  `json:"event"`
	State     string  `json:"state"`
	Kind      string  `json:"kind"`
	Period    float32 `json:"period"`
	Amplitude float32 `json:"amplitude"`
	Offset    float32 `json:"offset"`
	Current   float32 `json:"current"`
	Elapsed   float32 `json:"elapsed"`
}

// FormatTelemetry creates the JSON payload for a sample.
func FormatTelemetry(t time.Time, s pressure.Snapshot) ([]byte, error) {
	return json.Marshal(TelemetryPayload{
		Timestamp: t.UTC().Format(time.RFC3339Nano),
		Current:   s.Current,
		Target:    s.Target,
		Deviation: s.DeviationText(),
		Elapsed:   s.Elapsed,
		Channel:   s.Channel.String(),
		Run:       s.Run,
	})
}

// FormatSession creates the JSON payload for a session event.
func FormatSession(e session.Event) ([]byte, error) {
	return json.Marshal(SessionPayload{
		Session: SessionPayloadInner{
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(e.Type),
			State:     e.State.String(),
			Kind:      e.Kind.String(),
			Period:    e.Snapshot.Period,
			Amplitude: e.Snapshot.Amplitude,
			Offset:    e.Snapshot.Offset,
			Current:   e.Snapshot.Current,
			Elapsed:   e.Snapshot.Elapsed,
		},
	})
}

// Topics returns the telemetry and session topics below prefix.
func Topics(prefix string) (telemetry, session string) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + "/" + TopicTelemetry, prefix + "/" + TopicSession
}
