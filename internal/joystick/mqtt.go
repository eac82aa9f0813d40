package joystick

import (
	"context"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ErrConnectionLost is wrapped when the broker connection drops mid-stream.
var ErrConnectionLost = errors.New("mqtt connection lost")

// NewClient builds an MQTT client for the joystick feed. The client does not
// reconnect on its own: a lost connection ends the stream so the console can
// report it. lost may be nil.
func NewClient(broker, clientID string, lost func(error)) mqtt.Client {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetCleanSession(true)
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		if lost != nil {
			lost(err)
		}
	}
	return mqtt.NewClient(opts)
}

// MQTTSource is a bridge source emitting samples published on one topic.
type MQTTSource struct {
	client       mqtt.Client
	topic        string
	qos          byte
	timeout      time.Duration
	lost         chan error
	onBadPayload func(error)
}

// MQTTOption configures an MQTTSource.
type MQTTOption func(*MQTTSource)

// WithQoS sets the subscription QoS (default 0).
func WithQoS(qos byte) MQTTOption {
	return func(s *MQTTSource) {
		s.qos = qos
	}
}

// WithTimeout bounds connect and subscribe calls (default 5s).
func WithTimeout(d time.Duration) MQTTOption {
	return func(s *MQTTSource) {
		s.timeout = d
	}
}

// WithBadPayloadHandler is called for messages that are not valid samples.
// Such messages are skipped.
func WithBadPayloadHandler(fn func(error)) MQTTOption {
	return func(s *MQTTSource) {
		s.onBadPayload = fn
	}
}

// NewMQTTSource creates a source reading samples from topic.
func NewMQTTSource(client mqtt.Client, topic string, opts ...MQTTOption) *MQTTSource {
	s := &MQTTSource{
		client:  client,
		topic:   topic,
		timeout: 5 * time.Second,
		lost:    make(chan error, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ConnectionLost ends a running Stream with err. Wire it to the client's
// connection-lost handler.
func (s *MQTTSource) ConnectionLost(err error) {
	select {
	case s.lost <- err:
	default:
	}
}

// Stream connects if needed, subscribes and emits samples until ctx is done
// or the connection drops.
func (s *MQTTSource) Stream(ctx context.Context, emit func(Sample)) error {
	if !s.client.IsConnected() {
		if err := s.wait(s.client.Connect(), "connect"); err != nil {
			return err
		}
		defer s.client.Disconnect(250)
	}

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		sample, err := DecodeSample(msg.Payload())
		if err != nil {
			if s.onBadPayload != nil {
				s.onBadPayload(err)
			}
			return
		}
		emit(sample)
	}

	if err := s.wait(s.client.Subscribe(s.topic, s.qos, handler), "subscribe to "+s.topic); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		s.client.Unsubscribe(s.topic).WaitTimeout(time.Second)
		return ctx.Err()
	case err := <-s.lost:
		return fmt.Errorf("%w: %w", ErrConnectionLost, err)
	}
}

func (s *MQTTSource) wait(token mqtt.Token, what string) error {
	if !token.WaitTimeout(s.timeout) {
		return fmt.Errorf("mqtt %s timeout", what)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt %s failed: %w", what, err)
	}
	return nil
}
