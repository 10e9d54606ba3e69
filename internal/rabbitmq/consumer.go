package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/iyhunko/wallart-storefront/internal/model"
	"github.com/streadway/amqp"
)

// ErrDeliveriesClosed is returned by Start when the broker closes the delivery channel.
var ErrDeliveriesClosed = errors.New("delivery channel closed")

// MessageHandler receives decoded product messages.
type MessageHandler interface {
	HandleProductMessage(ctx context.Context, msg model.ProductMessage) error
}

// Consumer reads product messages from a queue with manual acknowledgements.
type Consumer struct {
	channel Channel
	queue   string
	handler MessageHandler
}

// NewConsumer creates a Consumer for queue.
func NewConsumer(channel Channel, queue string, handler MessageHandler) *Consumer {
	return &Consumer{
		channel: channel,
		queue:   queue,
		handler: handler,
	}
}

// Start consumes until ctx is cancelled or the broker closes the delivery channel.
func (c *Consumer) Start(ctx context.Context) error {
	if err := declareQueue(c.channel, c.queue); err != nil {
		return err
	}

	deliveries, err := c.channel.Consume(
		c.queue,
		"",    // consumer tag generated by the broker
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	slog.Info("Starting RabbitMQ consumer", slog.String("queue", c.queue))

	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping RabbitMQ consumer")
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return ErrDeliveriesClosed
			}
			c.handleDelivery(ctx, delivery)
		}
	}
}

// handleDelivery acks handled messages, rejects poison messages without requeue
// and requeues messages whose handler failed.
func (c *Consumer) handleDelivery(ctx context.Context, delivery amqp.Delivery) {
	err := c.processDelivery(ctx, delivery)

	switch {
	case err == nil:
		if ackErr := delivery.Ack(false); ackErr != nil {
			slog.Error("Error acking message", slog.Any("err", ackErr), slog.Uint64("delivery_tag", delivery.DeliveryTag))
		}
	case errors.Is(err, errUndecodable) || errors.Is(err, model.ErrMalformedMessage):
		slog.Error("Rejecting message", slog.Any("err", err), slog.Uint64("delivery_tag", delivery.DeliveryTag))
		if rejectErr := delivery.Reject(false); rejectErr != nil {
			slog.Error("Error rejecting message", slog.Any("err", rejectErr))
		}
	default:
		slog.Error("Error processing message", slog.Any("err", err), slog.Uint64("delivery_tag", delivery.DeliveryTag))
		if nackErr := delivery.Nack(false, true); nackErr != nil {
			slog.Error("Error nacking message", slog.Any("err", nackErr))
		}
	}
}

var errUndecodable = errors.New("failed to unmarshal message")

func (c *Consumer) processDelivery(ctx context.Context, delivery amqp.Delivery) error {
	var msg model.ProductMessage
	if err := json.Unmarshal(delivery.Body, &msg); err != nil {
		return fmt.Errorf("%w: %v", errUndecodable, err)
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	return c.handler.HandleProductMessage(ctx, msg)
}
