package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iyhunko/wallart-storefront/internal/config"
	"github.com/iyhunko/wallart-storefront/internal/logger"
	"github.com/iyhunko/wallart-storefront/internal/notification"
	"github.com/iyhunko/wallart-storefront/internal/rabbitmq"
	sqspkg "github.com/iyhunko/wallart-storefront/internal/sqs"
)

// consumer is implemented by both broker consumers.
type consumer interface {
	Start(ctx context.Context) error
}

func main() {
	logger.InitJSONLogger(os.Getenv(config.DebugModeEnv) == "true")

	conf, err := config.LoadBrokerFromEnv()
	handleErr("loading config", err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := notification.NewNotifier(nil)

	var c consumer
	switch conf.Kind {
	case config.BrokerSQS:
		sqsClient, err := sqspkg.NewClient(ctx, conf.AWS)
		handleErr("creating SQS client", err)
		c = sqspkg.NewConsumer(sqsClient, conf.AWS.SQSQueueURL, notifier)
	case config.BrokerAMQP:
		client, err := rabbitmq.NewClient(conf.AMQP)
		handleErr("connecting to RabbitMQ", err)
		defer func() {
			if err := client.Close(); err != nil {
				slog.Error("RabbitMQ close failed", slog.Any("err", err))
			}
		}()
		c = rabbitmq.NewConsumer(client.Channel(), conf.AMQP.Queue, notifier)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := c.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Consumer error", slog.Any("err", err))
		}
	}()

	slog.Info("Notification service started. Listening for messages...", slog.String("broker", conf.Kind))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
		slog.Info("Shutting down gracefully...")
	case <-done:
		slog.Info("Consumer stopped")
	}
	cancel()
}

func handleErr(msg string, err error) {
	if err != nil {
		slog.Error("fatal error", slog.String("while", msg), slog.Any("err", err))
		os.Exit(1)
	}
}
