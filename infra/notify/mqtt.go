// Package notify delivers dispatch notifications to external channels. Sinks
// are fire-and-forget: the scheduler logs failures and moves on.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/lightningtw/dispatchd/core/model"
	"github.com/lightningtw/dispatchd/infra/logger"
)

// Config defines the connection parameters for the MQTT notification sink.
type Config struct {
	Enabled     bool   `json:"enabled"`
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
	TimeoutMS   int    `json:"timeout_ms"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "dispatchd-notify"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "dispatch/notifications"
	}
	if c.TimeoutMS == 0 {
		c.TimeoutMS = 2000
	}
}

type message struct {
	Message  string    `json:"message"`
	Priority string    `json:"priority"`
	Time     time.Time `json:"time"`
}

// MQTTSink publishes notifications to one topic per priority.
type MQTTSink struct {
	cli     paho.Client
	cfg     Config
	log     logger.Logger
	timeout time.Duration
}

// NewMQTTSink connects to the broker.
func NewMQTTSink(cfg Config) (*MQTTSink, error) {
	cfg.SetDefaults()
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	cli := paho.NewClient(opts)
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	tok := cli.Connect()
	if !tok.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", cfg.Broker)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return &MQTTSink{cli: cli, cfg: cfg, log: logger.New("notify"), timeout: timeout}, nil
}

// Notify publishes the message on the priority's topic. The delivery priority
// maps the dispatch tier onto {high, normal, low}: medium orders notify at
// normal priority.
func (s *MQTTSink) Notify(ctx context.Context, msg string, priority model.Priority) error {
	_ = ctx
	level := deliveryPriority(priority)
	payload, err := json.Marshal(message{Message: msg, Priority: level, Time: time.Now().UTC()})
	if err != nil {
		return err
	}
	topic := s.cfg.TopicPrefix + "/" + level
	tok := s.cli.Publish(topic, s.cfg.QoS, false, payload)
	if !tok.WaitTimeout(s.timeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	return tok.Error()
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() {
	s.cli.Disconnect(250)
}

func deliveryPriority(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "high"
	case model.PriorityLow:
		return "low"
	default:
		return "normal"
	}
}
