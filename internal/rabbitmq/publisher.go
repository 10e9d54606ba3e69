package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iyhunko/wallart-storefront/internal/model"
	"github.com/streadway/amqp"
)

// Publisher sends product messages to a queue through the default exchange.
type Publisher struct {
	channel Channel
	queue   string
	now     func() time.Time
}

// NewPublisher creates a Publisher for queue.
func NewPublisher(channel Channel, queue string) *Publisher {
	return &Publisher{
		channel: channel,
		queue:   queue,
		now:     time.Now,
	}
}

// PublishProductMessage publishes msg as a persistent JSON message.
func (p *Publisher) PublishProductMessage(ctx context.Context, msg model.ProductMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = p.channel.Publish(
		"",      // default exchange
		p.queue, // routing key is the queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    p.now(),
			Type:         msg.Action,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish message to RabbitMQ: %w", err)
	}

	return nil
}
