package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iyhunko/wallart-storefront/internal/auth"
	"github.com/iyhunko/wallart-storefront/internal/config"
	httpAPI "github.com/iyhunko/wallart-storefront/internal/http"
	"github.com/iyhunko/wallart-storefront/internal/http/controller"
	"github.com/iyhunko/wallart-storefront/internal/http/middleware"
	"github.com/iyhunko/wallart-storefront/internal/logger"
	"github.com/iyhunko/wallart-storefront/internal/metrics"
	"github.com/iyhunko/wallart-storefront/internal/rabbitmq"
	"github.com/iyhunko/wallart-storefront/internal/repository/sql"
	"github.com/iyhunko/wallart-storefront/internal/service"
	sqspkg "github.com/iyhunko/wallart-storefront/internal/sqs"
)

const shutdownTimeout = 10 * time.Second

func main() {
	conf, err := config.LoadFromEnv()
	handleErr("loading config", err)
	logger.InitJSONLogger(conf.DebugMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := sql.StartDB(ctx, conf.Database)
	handleErr("starting database", err)
	defer db.Close()

	// Repositories
	userRepository := sql.NewUserRepository(db)
	store := sql.NewTransactionalRepository(db)

	handleErr("seeding admin account", auth.EnsureAdmin(ctx, userRepository, conf.Auth.AdminEmail, conf.Auth.AdminPassword))

	// Outbox worker publishes product events to the configured broker
	publisher, closePublisher, err := newPublisher(ctx, conf.Broker)
	handleErr("connecting to event broker", err)
	defer closePublisher()

	var outboxWorker *service.OutboxWorker
	if publisher != nil {
		outboxWorker = service.NewOutboxWorker(store, publisher, conf.Broker.OutboxInterval)
		go outboxWorker.Start(ctx)
	} else {
		slog.Info("No event broker configured, product events stay pending")
	}

	// Services and HTTP
	catalogService := service.NewCatalogService(store, store)
	authService := auth.NewAuthenticator(userRepository, conf.Auth)

	if !conf.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := httpAPI.InitRouter(middleware.New(authService), gin.New(), httpAPI.Controllers{
		General: controller.New(conf),
		Product: controller.NewProductController(catalogService),
		Auth:    controller.NewAuthController(authService),
		Admin:   controller.NewAdminController(catalogService),
	})

	httpServer := &http.Server{
		Addr:              ":" + conf.HTTPServer.Port,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("HTTP server starting", slog.String("port", conf.HTTPServer.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			handleErr("listening to HTTP requests", err)
		}
	}()

	metricsServer := metrics.StartMetricsServer(conf)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	slog.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", slog.Any("err", err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Metrics server shutdown failed", slog.Any("err", err))
	}
	if outboxWorker != nil {
		outboxWorker.Stop()
	}
	cancel()
}

// newPublisher connects to the configured broker. It returns a nil publisher when publishing is disabled.
func newPublisher(ctx context.Context, conf config.Broker) (service.Publisher, func(), error) {
	noop := func() {}

	switch conf.Kind {
	case config.BrokerSQS:
		client, err := sqspkg.NewClient(ctx, conf.AWS)
		if err != nil {
			return nil, noop, err
		}
		return sqspkg.NewPublisher(client, conf.AWS.SQSQueueURL), noop, nil

	case config.BrokerAMQP:
		client, err := rabbitmq.NewClient(conf.AMQP)
		if err != nil {
			return nil, noop, err
		}
		closeClient := func() {
			if err := client.Close(); err != nil {
				slog.Error("RabbitMQ close failed", slog.Any("err", err))
			}
		}
		return rabbitmq.NewPublisher(client.Channel(), conf.AMQP.Queue), closeClient, nil
	}

	return nil, noop, nil
}

func handleErr(msg string, err error) {
	if err != nil {
		slog.Error("fatal error", slog.String("while", msg), slog.Any("err", err))
		os.Exit(1)
	}
}
