package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const mqttTimeout = 2 * time.Second

// publisher is the part of mqtt.Client the sink uses.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTSink publishes each report as JSON on Topic, and the controller's
// fault state, retained, on Topic/fault when it changes.
type MQTTSink struct {
	client  publisher
	topic   string
	faulted *bool
}

// DialMQTT connects to the broker in cfg. The connection retries in the
// background when the broker is down at start.
func DialMQTT(cfg MQTTConfig, log *slog.Logger) (*MQTTSink, mqtt.Client, error) {
	id := cfg.ClientID
	if id == "" {
		id = "bdc-monitor-" + uuid.NewString()[:8]
	}
	online := cfg.Topic + "/online"

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%s", cfg.Host, cfg.Port))
	opts.SetClientID(id)
	opts.SetWill(online, "false", 1, true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.OnConnect = func(c mqtt.Client) {
		log.Info("mqtt: connected", "broker", cfg.Host, "client_id", id)
		c.Publish(online, 1, true, "true")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn("mqtt: connection lost", "err", err)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.WaitTimeout(mqttTimeout) && token.Error() != nil {
		return nil, nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return NewMQTTSink(client, cfg.Topic), client, nil
}

// NewMQTTSink publishes through client.
func NewMQTTSink(client publisher, topic string) *MQTTSink {
	return &MQTTSink{client: client, topic: topic}
}

func (s *MQTTSink) Publish(r Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if err := s.wait(s.client.Publish(s.topic, 0, false, payload)); err != nil {
		return err
	}

	faulted := r.Faulted()
	if s.faulted != nil && *s.faulted == faulted {
		return nil
	}
	if err := s.wait(s.client.Publish(s.topic+"/fault", 1, true, r.Faults)); err != nil {
		return err
	}
	s.faulted = &faulted
	return nil
}

func (s *MQTTSink) wait(token mqtt.Token) error {
	if !token.WaitTimeout(mqttTimeout) {
		return fmt.Errorf("mqtt publish to %s timed out", s.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish to %s: %w", s.topic, err)
	}
	return nil
}
