package mqttbus

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// IPublisher is the outbound side of the bus.
type IPublisher interface {
	Publish(topic string, payload []byte) error
	PublishQos(topic string, qos byte, retained bool, payload []byte) error
}

// Publisher publishes on the shared client.
type Publisher struct {
	client mqtt.Client
}

func NewPublisher(client mqtt.Client) *Publisher {
	return &Publisher{client: client}
}

// Publish sends at QoS 0.
func (p *Publisher) Publish(topic string, payload []byte) error {
	return p.PublishQos(topic, 0, false, payload)
}

// PublishQos sends with an explicit QoS and retained flag.
func (p *Publisher) PublishQos(topic string, qos byte, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, token.Error())
	}
	return nil
}
