// Package mqtt implements the daemon's notification-capable transport
// on top of an MQTT broker.
//
// Raw update packets arrive on the command topic and are pushed into a
// PacketHandler; status bytes and alerts are published to their own
// topics. Delivery of status notifications is fire-and-forget, per the
// Notifier contract.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/nisc-labs/wearguard/internal/domain"
	"github.com/nisc-labs/wearguard/pkg/log"
)

// PacketHandler consumes raw update packets and transport lifecycle
// events. Implemented by the update controller.
type PacketHandler interface {
	HandleRaw(buf []byte) error
	Disconnected()
}

// Config holds the transport settings.
type Config struct {
	BrokerURL    string
	ClientID     string
	CommandTopic string
	StatusTopic  string
	AlertTopic   string

	ConnectTimeout time.Duration
	PublishTimeout time.Duration
}

// Transport connects the update controller and alert pipeline to an
// MQTT broker. It implements ports.Notifier and ports.AlertSink.
type Transport struct {
	cfg     Config
	client  paho.Client
	handler PacketHandler
	logger  log.Logger
}

// NewTransport creates a transport. Connect must be called before use.
func NewTransport(cfg Config, handler PacketHandler, logger log.Logger) (*Transport, error) {
	if cfg.BrokerURL == "" || handler == nil {
		return nil, domain.ErrInvalidArgument
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	t := &Transport{cfg: cfg, handler: handler, logger: logger}

	opts := paho.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetOnConnectHandler(t.onConnect).
		SetConnectionLostHandler(t.onConnectionLost)
	t.client = paho.NewClient(opts)
	return t, nil
}

// Connect establishes the broker connection and subscribes to the
// command topic.
func (t *Transport) Connect(ctx context.Context) error {
	token := t.client.Connect()
	if !token.WaitTimeout(t.cfg.ConnectTimeout) {
		return fmt.Errorf("mqtt connect: %w", domain.ErrTimedOut)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

// Close disconnects from the broker.
func (t *Transport) Close() {
	t.client.Disconnect(250)
}

// Notify publishes a single status byte. It never blocks and never
// reports delivery failures to the caller.
func (t *Transport) Notify(status byte) {
	t.client.Publish(t.cfg.StatusTopic, 1, false, []byte{status})
}

// Publish delivers one alert as JSON to the alert topic.
func (t *Transport) Publish(ctx context.Context, alert domain.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	token := t.client.Publish(t.cfg.AlertTopic, 1, false, payload)
	if !token.WaitTimeout(t.cfg.PublishTimeout) {
		return fmt.Errorf("publish alert %d: %w", alert.ID, domain.ErrTimedOut)
	}
	return token.Error()
}

func (t *Transport) onConnect(client paho.Client) {
	t.logger.Info("broker connected", log.String("topic", t.cfg.CommandTopic))

	token := client.Subscribe(t.cfg.CommandTopic, 1, func(_ paho.Client, msg paho.Message) {
		// Errors are already replied to via the status topic.
		_ = t.handler.HandleRaw(msg.Payload())
	})
	if !token.WaitTimeout(t.cfg.ConnectTimeout) || token.Error() != nil {
		t.logger.Error("command topic subscribe failed", log.Err(token.Error()))
	}
}

func (t *Transport) onConnectionLost(_ paho.Client, err error) {
	t.logger.Warn("broker connection lost", log.Err(err))
	t.handler.Disconnected()
}
