package sink

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTSink publishes messages to a single fixed topic on a broker, the
// variant named alongside the cloud sink for sites that run their own
// broker instead of Azure IoT Hub.
type MQTTSink struct {
	client mqtt.Client
	topic  string
	qos    byte
}

// NewMQTTSink connects to broker (e.g. "tcp://localhost:1883") and
// returns a sink that publishes to topic at the given QoS.
func NewMQTTSink(broker, clientID, topic string, qos byte) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(3 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("sink: mqtt connect: %w", token.Error())
	}

	return &MQTTSink{client: client, topic: topic, qos: qos}, nil
}

// Send publishes message to the sink's configured topic.
func (s *MQTTSink) Send(message []byte) error {
	token := s.client.Publish(s.topic, s.qos, false, message)
	token.Wait()
	return token.Error()
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() {
	s.client.Disconnect(250)
}
