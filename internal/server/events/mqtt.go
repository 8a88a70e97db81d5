package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultPublishTimeout = 5 * time.Second
	disconnectQuiesceMS   = 250
)

var (
	// ErrConnectionFailed is returned when the broker cannot be reached.
	ErrConnectionFailed = errors.New("mqtt connection failed")
	// ErrPublishFailed is returned when a message is not acknowledged.
	ErrPublishFailed = errors.New("mqtt publish failed")
)

// MQTTConfig configures MQTTPublisher.
type MQTTConfig struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	QoS         byte
}

// MQTTPublisher sends events to <TopicPrefix>/<type> as JSON, e.g.
// gophauth/events/logged_in.
type MQTTPublisher struct {
	client pahomqtt.Client
	cfg    MQTTConfig
}

// NewMQTTPublisher connects to cfg.Broker and waits for the initial
// connection. The paho client reconnects automatically afterwards.
func NewMQTTPublisher(cfg MQTTConfig) (*MQTTPublisher, error) {
	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(false).
		SetConnectTimeout(defaultConnectTimeout)

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return newMQTTPublisher(client, cfg), nil
}

func newMQTTPublisher(client pahomqtt.Client, cfg MQTTConfig) *MQTTPublisher {
	return &MQTTPublisher{client: client, cfg: cfg}
}

// Topic returns the topic an event of type t is published to.
func (p *MQTTPublisher) Topic(t Type) string {
	return p.cfg.TopicPrefix + "/" + string(t)
}

// Publish sends e and waits for the broker acknowledgment, bounded by ctx
// and a default timeout.
func (p *MQTTPublisher) Publish(ctx context.Context, e AuthEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	token := p.client.Publish(p.Topic(e.Type), p.cfg.QoS, false, payload)

	timeout := defaultPublishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}

	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() error {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(disconnectQuiesceMS)
	}
	return nil
}
