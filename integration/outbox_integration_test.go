package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/iyhunko/wallart-storefront/internal/config"
	"github.com/iyhunko/wallart-storefront/internal/form"
	"github.com/iyhunko/wallart-storefront/internal/model"
	"github.com/iyhunko/wallart-storefront/internal/notification"
	"github.com/iyhunko/wallart-storefront/internal/rabbitmq"
	reposql "github.com/iyhunko/wallart-storefront/internal/repository/sql"
	"github.com/iyhunko/wallart-storefront/internal/service"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testQueue = "product_notifications_test"

// setupRabbitMQ starts a RabbitMQ container on the pool already used by testDB.
func setupRabbitMQ(t *testing.T, pool *dockertest.Pool) config.AMQPConfig {
	t.Helper()

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "rabbitmq",
		Tag:        "3-alpine",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("Could not start rabbitmq: %s", err)
	}
	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Errorf("Could not purge rabbitmq: %s", err)
		}
	})
	if err := resource.Expire(120); err != nil {
		t.Fatalf("Could not set expiration: %s", err)
	}

	conf := config.AMQPConfig{
		URL:   fmt.Sprintf("amqp://guest:guest@%s/", resource.GetHostPort("5672/tcp")),
		Queue: testQueue,
	}
	if err := pool.Retry(func() error {
		client, err := rabbitmq.NewClient(conf)
		if err != nil {
			return err
		}
		return client.Close()
	}); err != nil {
		t.Fatalf("Could not connect to rabbitmq: %s", err)
	}
	return conf
}

// recordingHandler forwards to the notifier and keeps every message it saw.
type recordingHandler struct {
	notifier *notification.Notifier

	mu       sync.Mutex
	messages []model.ProductMessage
}

func (h *recordingHandler) HandleProductMessage(ctx context.Context, msg model.ProductMessage) error {
	if err := h.notifier.HandleProductMessage(ctx, msg); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
	return nil
}

func (h *recordingHandler) received() []model.ProductMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]model.ProductMessage(nil), h.messages...)
}

func TestOutboxToRabbitMQ_Integration(t *testing.T) {
	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)
	testDB.TruncateTables(t)

	amqpConf := setupRabbitMQ(t, testDB.Pool)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store := reposql.NewTransactionalRepository(testDB.DB)
	catalog := service.NewCatalogService(store, store)

	result, err := catalog.SubmitProduct(ctx, form.Submission{
		Title:       "Mountain Sunset",
		Description: "Golden hour over the ridge",
		Category:    "Landscapes",
		ImageURL:    "https://cdn.example.com/mountain-sunset.jpg",
		Variants: []form.Variant{
			{Size: "12x16", Price: "49.99", AmazonLink: "https://amazon.com/dp/B0SUNSET"},
			{Size: "18x24", Price: "79", AmazonLink: "https://amazon.com/dp/B0SUNSET2"},
		},
	})
	require.NoError(t, err)
	require.NoError(t, catalog.DeleteProduct(ctx, result.Product.ID))

	publisherClient, err := rabbitmq.NewClient(amqpConf)
	require.NoError(t, err)
	defer publisherClient.Close()

	consumerClient, err := rabbitmq.NewClient(amqpConf)
	require.NoError(t, err)
	defer consumerClient.Close()

	handler := &recordingHandler{notifier: notification.NewNotifier(nil)}
	consumer := rabbitmq.NewConsumer(consumerClient.Channel(), amqpConf.Queue, handler)
	consumerDone := make(chan error, 1)
	go func() { consumerDone <- consumer.Start(ctx) }()

	worker := service.NewOutboxWorker(store, rabbitmq.NewPublisher(publisherClient.Channel(), amqpConf.Queue), 50*time.Millisecond)
	go worker.Start(ctx)
	defer worker.Stop()

	require.Eventually(t, func() bool {
		return len(handler.received()) == 2
	}, 20*time.Second, 100*time.Millisecond)

	messages := handler.received()
	actions := []string{messages[0].Action, messages[1].Action}
	assert.ElementsMatch(t, []string{service.ActionCreated, service.ActionDeleted}, actions)
	for _, msg := range messages {
		assert.Equal(t, result.Product.ID.String(), msg.ProductID)
		assert.Equal(t, "Mountain Sunset", msg.Title)
		assert.Equal(t, 2, msg.VariantCount)
		assert.InDelta(t, 49.99, msg.MinPrice, 0.001)
	}

	assert.Eventually(t, func() bool {
		return testDB.count(t, "SELECT COUNT(*) FROM events WHERE status = $1", string(model.EventStatusProcessed)) == 2
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case <-consumerDone:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}
}
