package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/itohio/gopcr/pkg/pressure"
	"github.com/itohio/gopcr/pkg/session"
)

// RealPublisher publishes to an actual MQTT broker.
type RealPublisher struct {
	client         paho.Client
	telemetryTopic string
	sessionTopic   string
}

var _ Publisher = (*RealPublisher)(nil)

// NewRealPublisher creates a publisher connected to the given broker.
func NewRealPublisher(broker, clientID, prefix string) (*RealPublisher, error) {
	if clientID == "" {
		clientID = "gopcr"
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	telemetry, sess := Topics(prefix)
	return &RealPublisher{
		client:         client,
		telemetryTopic: telemetry,
		sessionTopic:   sess,
	}, nil
}

// PublishTelemetry sends a sample at QoS 0; a lost sample is replaced by the next one.
func (p *RealPublisher) PublishTelemetry(t time.Time, s pressure.Snapshot) error {
	payload, err := FormatTelemetry(t, s)
	if err != nil {
		return fmt.Errorf("format telemetry payload: %w", err)
	}

	token := p.client.Publish(p.telemetryTopic, 0, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish telemetry timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish telemetry: %w", err)
	}
	return nil
}

// PublishSession sends a session event at QoS 1.
func (p *RealPublisher) PublishSession(e session.Event) error {
	payload, err := FormatSession(e)
	if err != nil {
		return fmt.Errorf("format session payload: %w", err)
	}

	token := p.client.Publish(p.sessionTopic, 1, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish session timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish session: %w", err)
	}
	return nil
}

// IsConnected reports whether the client is connected to the broker.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
