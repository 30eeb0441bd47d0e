package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// DeliveryHandler processes one delivery and is responsible for the
// acknowledgement decision.
type DeliveryHandler func(delivery amqp.Delivery)

// Consumer keeps a subscription on the shared durable queue alive for the
// lifetime of the process. Prefetch is pinned to 1 so deliveries are handled
// strictly one at a time; when the delivery stream dies (channel or
// connection loss) the consumer waits and resubscribes on the reconnected
// channel.
type Consumer struct {
	client    *Client
	name      string
	retryWait time.Duration
}

func NewConsumer(client *Client, name string, retryWait time.Duration) *Consumer {
	return &Consumer{
		client:    client,
		name:      name,
		retryWait: retryWait,
	}
}

// Consume blocks until ctx is cancelled, dispatching every delivery to
// handler.
func (c *Consumer) Consume(ctx context.Context, handler DeliveryHandler) error {
	for {
		deliveries, err := c.subscribe()
		if err != nil {
			logrus.Errorf("Subscribe error: %v, retrying in %s", err, c.retryWait)
		} else {
			logrus.Infof("Consuming from queue %s as %s", c.client.Queue(), c.name)
			c.drain(ctx, deliveries, handler)
		}

		select {
		case <-ctx.Done():
			logrus.Infof("Consumer %s stopped", c.name)
			return ctx.Err()
		case <-time.After(c.retryWait):
		}
	}
}

func (c *Consumer) subscribe() (<-chan amqp.Delivery, error) {
	if !c.client.IsConnected() {
		return nil, fmt.Errorf("no connection to RabbitMQ")
	}

	channel := c.client.Channel()

	// Redundant with the client's declare on connect, but declaring here too
	// keeps the subscription safe when resubscribing on a fresh channel.
	if _, err := channel.QueueDeclare(
		c.client.Queue(), // name
		true,             // durable
		false,            // delete when unused
		false,            // exclusive
		false,            // no-wait
		nil,              // arguments
	); err != nil {
		return nil, fmt.Errorf("queue declare error: %v", err)
	}

	// One unacked message at a time.
	if err := channel.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("qos error: %v", err)
	}

	deliveries, err := channel.Consume(
		c.client.Queue(), // queue
		c.name,           // consumer
		false,            // auto-ack
		false,            // exclusive
		false,            // no-local
		false,            // no-wait
		nil,              // args
	)
	if err != nil {
		return nil, fmt.Errorf("consume start error: %v", err)
	}

	return deliveries, nil
}

func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery, handler DeliveryHandler) {
	for {
		select {
		case msg, ok := <-deliveries:
			if !ok {
				logrus.Warn("Delivery stream closed, will resubscribe")
				return
			}
			handler(msg)
		case <-ctx.Done():
			return
		}
	}
}
