package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/car-detailing-platform/payment-pipeline/internal/events"
	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// Publisher sends completion events to the shared durable queue through the
// default exchange (routing key equals the queue name). It is fire-and-forget:
// there is no publisher confirm and no retry, a failed publish is the
// caller's problem to log.
type Publisher struct {
	client *Client
}

func NewPublisher(client *Client) *Publisher {
	return &Publisher{
		client: client,
	}
}

func (p *Publisher) PublishPaymentSucceeded(event events.PaymentSucceededEvent) error {
	if !p.client.IsConnected() {
		return fmt.Errorf("no connection to RabbitMQ")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("event serialization error: %v", err)
	}

	channel := p.client.Channel()
	err = channel.Publish(
		"",               // default exchange
		p.client.Queue(), // routing key = queue name
		false,            // mandatory
		false,            // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("event publish error: %v", err)
	}

	logrus.Infof("Published payment succeeded event: order_id=%s user_id=%s amount=%.2f",
		event.OrderID, event.UserID, event.Amount)
	return nil
}
