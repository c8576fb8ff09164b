// internal/writer/broker.go
package writer

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

const (
	brokerQoS     byte = 1
	brokerTimeout      = 5 * time.Second
)

var errPublishTimeout = errors.New("writer: mqtt publish timeout")

// mqttBroker adapts a paho client to Broker.
type mqttBroker struct {
	client    mqtt.Client
	connected atomic.Bool
	log       zerolog.Logger

	// restored after reconnect
	subs atomic.Pointer[map[string]mqtt.MessageHandler]
}

// BrokerOptions is the connection config for Dial.
type BrokerOptions struct {
	Broker   string
	ClientID string
	Username string
	Password string

	// Will is published retained by the broker if the link drops.
	WillTopic   string
	WillPayload string
}

// Dial connects to the broker. Reconnects are automatic; subscriptions
// are restored on every reconnect.
func Dial(o BrokerOptions, log zerolog.Logger) (Broker, error) {
	if o.Broker == "" {
		return nil, errors.New("writer: mqtt broker required")
	}

	b := &mqttBroker{log: log.With().Str("broker", o.Broker).Logger()}
	empty := map[string]mqtt.MessageHandler{}
	b.subs.Store(&empty)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(o.Broker)
	opts.SetClientID(o.ClientID)
	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}
	if o.WillTopic != "" {
		opts.SetWill(o.WillTopic, o.WillPayload, brokerQoS, true)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	// command handlers wait on the poller worker
	opts.SetOrderMatters(false)

	opts.OnConnect = func(c mqtt.Client) {
		b.connected.Store(true)
		b.log.Info().Msg("mqtt connected")
		for topic, h := range *b.subs.Load() {
			if tok := c.Subscribe(topic, brokerQoS, h); tok.WaitTimeout(brokerTimeout) && tok.Error() != nil {
				b.log.Error().Err(tok.Error()).Str("topic", topic).Msg("mqtt resubscribe failed")
			}
		}
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		b.connected.Store(false)
		b.log.Warn().Err(err).Msg("mqtt connection lost")
	}

	b.client = mqtt.NewClient(opts)

	tok := b.client.Connect()
	if tok.WaitTimeout(brokerTimeout) && tok.Error() != nil {
		return nil, fmt.Errorf("writer: mqtt connect %s: %w", o.Broker, tok.Error())
	}
	return b, nil
}

func (b *mqttBroker) Publish(topic string, retained bool, payload []byte) error {
	tok := b.client.Publish(topic, brokerQoS, retained, payload)
	if !tok.WaitTimeout(brokerTimeout) {
		return errPublishTimeout
	}
	return tok.Error()
}

func (b *mqttBroker) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	h := func(_ mqtt.Client, m mqtt.Message) {
		handler(m.Topic(), m.Payload())
	}

	next := map[string]mqtt.MessageHandler{}
	for k, v := range *b.subs.Load() {
		next[k] = v
	}
	next[topic] = h
	b.subs.Store(&next)

	if !b.connected.Load() {
		// OnConnect subscribes once the link is up
		return nil
	}
	tok := b.client.Subscribe(topic, brokerQoS, h)
	if !tok.WaitTimeout(brokerTimeout) {
		return fmt.Errorf("writer: mqtt subscribe %s: timeout", topic)
	}
	return tok.Error()
}

func (b *mqttBroker) Close() {
	b.client.Disconnect(250)
}
