// Package mqtt bridges race-timing events published on an MQTT topic into
// the same processing path as the HTTP ingest endpoint.
package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/pitwall/trackrelay/core/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Topic    string `json:"topic"`
	QoS      byte   `json:"qos"`
}

// SetDefaults applies the default ingest topic.
func (c *Config) SetDefaults() {
	if c.Topic == "" {
		c.Topic = "trackrelay/events"
	}
	if c.ClientID == "" {
		c.ClientID = "trackrelay-" + uuid.NewString()
	}
}

// Handler consumes one raw event payload.
type Handler interface {
	HandlePayload(payload []byte) error
}

// Ingestor subscribes to the event topic and feeds payloads to the Handler.
type Ingestor struct {
	cli paho.Client
	cfg Config
	log logger.Logger
}

// NewIngestor connects to the broker and subscribes to the configured topic.
// The subscription is re-established on every reconnect.
func NewIngestor(cfg Config, h Handler, log logger.Logger) (*Ingestor, error) {
	cfg.SetDefaults()
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt broker is required")
	}
	onMessage := func(_ paho.Client, m paho.Message) {
		if err := h.HandlePayload(m.Payload()); err != nil {
			log.Errorf("mqtt payload on %s: %v", m.Topic(), err)
		}
	}
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	opts.ConnectTimeout = 10 * time.Second
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if token := c.Subscribe(cfg.Topic, cfg.QoS, onMessage); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe %s: %v", cfg.Topic, token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &Ingestor{cli: cli, cfg: cfg, log: log}, nil
}

// Close disconnects from the broker.
func (i *Ingestor) Close() {
	i.cli.Disconnect(250)
}
