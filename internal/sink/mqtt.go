package sink

import (
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MqttSink publishes each frame as a binary MQTT message on a fixed
// topic, adapted from the teacher's MQTT output node
// (pkg/nodes/network/mqtt_out.go). One is built only for a sinks entry
// with type mqtt; nothing about frame production depends on it.
type MqttSink struct {
	mu     sync.Mutex
	client mqtt.Client
	topic  string
	qos    byte
}

// NewMqttSink constructs an MqttSink publishing to topic against a
// broker at brokerURL (e.g. "tcp://host:1883").
func NewMqttSink(brokerURL, clientID, topic string, qos byte) *MqttSink {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(5 * time.Second)

	return &MqttSink{client: mqtt.NewClient(opts), topic: topic, qos: qos}
}

func (s *MqttSink) Configure(order ChannelOrder, ledCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := s.client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("mqtt sink: connect timed out")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt sink: connect: %w", err)
	}
	return nil
}

// Submit publishes frameBytes retained=false, qos as configured. A
// publish failure is treated as SinkTransient (spec.md §7); paho's own
// auto-reconnect handles recovery without this sink managing backoff
// itself.
func (s *MqttSink) Submit(frameBytes []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := s.client.Publish(s.topic, s.qos, false, frameBytes)
	if !token.WaitTimeout(time.Second) {
		return fmt.Errorf("mqtt sink: publish timed out")
	}
	return token.Error()
}

func (s *MqttSink) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client.Disconnect(250)
	return nil
}
