package mqttbus

import (
	"context"
	"log"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Handler processes one inbound message from a subscribed topic.
type Handler func(topic string, message mqtt.Message) error

// IConsumer is the subscription side of the bus. T documents the payload
// type the handler is expected to decode.
type IConsumer[T any] interface {
	Consume(ctx context.Context)
	SetHandler(h Handler)
}

// qosFor picks the subscription QoS by topic prefix: valve transitions and
// raw samples must survive broker redelivery, everything else is
// at-most-once.
func qosFor(topic string) byte {
	t := strings.TrimSpace(topic)
	if strings.HasPrefix(t, "sensor/weather") ||
		strings.HasPrefix(t, "event/valve") {
		return 1
	}
	return 0
}

// Consumer subscribes to a set of topic filters on the shared client and
// routes every message through a single handler.
type Consumer struct {
	client  mqtt.Client
	topics  []string
	handler Handler
}

// NewConsumer builds a consumer for the given topic filters; the handler
// may be injected later via SetHandler.
func NewConsumer(client mqtt.Client, topics []string, handler Handler) *Consumer {
	return &Consumer{client: client, topics: topics, handler: handler}
}

func (c *Consumer) SetHandler(h Handler) { c.handler = h }

// Consume subscribes and blocks until ctx is cancelled, then unsubscribes.
func (c *Consumer) Consume(ctx context.Context) {
	for _, topic := range c.topics {
		topic := topic
		token := c.client.Subscribe(topic, qosFor(topic), func(_ mqtt.Client, msg mqtt.Message) {
			if c.handler == nil {
				log.Printf("mqttbus: no handler set for topic %s", topic)
				return
			}
			if err := c.handler(msg.Topic(), msg); err != nil {
				log.Printf("mqttbus: handler error on %s: %v", msg.Topic(), err)
			}
		})
		token.Wait()
		if token.Error() != nil {
			log.Printf("mqttbus: subscribe %s failed: %v", topic, token.Error())
		} else {
			log.Printf("mqttbus: subscribed to %s", topic)
		}
	}

	<-ctx.Done()

	for _, topic := range c.topics {
		c.client.Unsubscribe(topic)
	}
}
