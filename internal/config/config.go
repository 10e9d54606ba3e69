package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DebugModeEnv is the environment variable for debug mode.
	DebugModeEnv = "DEBUG_MODE"

	// DBHostEnv is the environment variable for database host.
	DBHostEnv = "DB_HOST"

	// DBPortEnv is the environment variable for database port.
	DBPortEnv = "DB_PORT"

	// DBUserEnv is the environment variable for database user.
	DBUserEnv = "DB_USER"

	// DBPassEnv is the environment variable for database password.
	DBPassEnv = "DB_PASS"

	// DBNameEnv is the environment variable for database name.
	DBNameEnv = "DB_NAME"

	// HTTPServerPortEnv is the environment variable for HTTP server port.
	HTTPServerPortEnv = "HTTP_SERVER_PORT"

	// MetricsServerPortEnv is the environment variable for metrics server port.
	MetricsServerPortEnv = "METRICS_SERVER_PORT"

	// EnvFilePath is the environment variable for .env file path (only for local/test environment).
	EnvFilePath = "ENV_PATH"

	// DefaultEnvFilePath is the default path to the .env file.
	DefaultEnvFilePath = ".env"

	// AuthJWTSecretEnv is the environment variable for the session token signing secret.
	AuthJWTSecretEnv = "AUTH_JWT_SECRET"

	// AuthSessionTTLEnv is the environment variable for the session lifetime (Go duration).
	AuthSessionTTLEnv = "AUTH_SESSION_TTL"

	// AuthCookieSecureEnv marks the session cookie Secure (HTTPS only).
	AuthCookieSecureEnv = "AUTH_COOKIE_SECURE"

	// AdminEmailEnv is the environment variable for the seeded admin account email.
	AdminEmailEnv = "ADMIN_EMAIL"

	// AdminPasswordEnv is the environment variable for the seeded admin account password.
	AdminPasswordEnv = "ADMIN_PASSWORD"

	// EventBrokerEnv selects where outbox events are published: sqs, amqp or none.
	EventBrokerEnv = "EVENT_BROKER"

	// OutboxIntervalEnv is the environment variable for the outbox polling interval (Go duration).
	OutboxIntervalEnv = "OUTBOX_INTERVAL"

	// AWSRegionEnv is the environment variable for AWS region.
	AWSRegionEnv = "AWS_REGION"

	// AWSEndpointEnv is the environment variable for AWS endpoint.
	AWSEndpointEnv = "AWS_ENDPOINT"

	// SQSQueueURLEnv is the environment variable for SQS queue URL.
	SQSQueueURLEnv = "SQS_QUEUE_URL"

	// AMQPURLEnv is the environment variable for the RabbitMQ connection URL.
	AMQPURLEnv = "AMQP_URL"

	// AMQPQueueEnv is the environment variable for the RabbitMQ queue name.
	AMQPQueueEnv = "AMQP_QUEUE"
)

// Supported values of EVENT_BROKER.
const (
	BrokerSQS  = "sqs"
	BrokerAMQP = "amqp"
	BrokerNone = "none"
)

const (
	defaultSessionTTL     = 24 * time.Hour
	defaultOutboxInterval = 2 * time.Second
	defaultAMQPQueue      = "product_notifications"
)

var (
	// ErrMissingConfig is returned when required configuration values are missing.
	ErrMissingConfig = errors.New("missing config data")

	// ErrUnknownBroker is returned when EVENT_BROKER holds an unsupported value.
	ErrUnknownBroker = errors.New("unknown event broker")
)

// Config represents the application configuration.
type Config struct {
	DebugMode     bool
	Database      DB
	HTTPServer    Server
	MetricsServer Server
	Auth          Auth
	Broker        Broker
}

// Auth represents session and admin account settings.
type Auth struct {
	JWTSecret     string
	SessionTTL    time.Duration
	CookieSecure  bool
	AdminEmail    string
	AdminPassword string
}

// Broker represents event publishing settings.
type Broker struct {
	Kind           string
	OutboxInterval time.Duration
	AWS            AWSConfig
	AMQP           AMQPConfig
}

// AWSConfig represents AWS-specific configuration settings.
type AWSConfig struct {
	Region      string
	Endpoint    string
	SQSQueueURL string
}

// AMQPConfig represents RabbitMQ configuration settings.
type AMQPConfig struct {
	URL   string
	Queue string
}

// DB represents database configuration settings.
type DB struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
}

// Server represents server configuration settings.
type Server struct {
	Port string
}

func allNonEmpty(keyValues map[string]string) error {
	for key, value := range keyValues {
		if value == "" {
			slog.Error("configuration validation failed", slog.String("key", key), slog.String("error", "value is empty"))
			return fmt.Errorf("%w for key: %s", ErrMissingConfig, key)
		}
	}
	return nil
}

func allNumbers(keyValues map[string]string) error {
	for key, value := range keyValues {
		_, err := strconv.Atoi(value)
		if err != nil {
			slog.Error("configuration validation failed", slog.String("key", key), slog.String("value", value), slog.String("error", err.Error()))
			return fmt.Errorf("invalid number for key %s: %w", key, err)
		}
	}
	return nil
}

func (c *Config) validate() error {
	if err := allNonEmpty(map[string]string{
		DBHostEnv: c.Database.Host,
		DBUserEnv: c.Database.User,
		DBNameEnv: c.Database.Name,
	}); err != nil {
		return fmt.Errorf("database configuration incomplete: %w", err)
	}

	if err := allNonEmpty(map[string]string{
		HTTPServerPortEnv:    c.HTTPServer.Port,
		MetricsServerPortEnv: c.MetricsServer.Port,
	}); err != nil {
		return fmt.Errorf("server port configuration incomplete: %w", err)
	}

	if err := allNumbers(map[string]string{
		DBPortEnv:            c.Database.Port,
		HTTPServerPortEnv:    c.HTTPServer.Port,
		MetricsServerPortEnv: c.MetricsServer.Port,
	}); err != nil {
		return fmt.Errorf("invalid port number: %w", err)
	}

	if err := allNonEmpty(map[string]string{
		AuthJWTSecretEnv: c.Auth.JWTSecret,
	}); err != nil {
		return fmt.Errorf("auth configuration incomplete: %w", err)
	}

	return c.Broker.validate()
}

func (b *Broker) validate() error {
	switch b.Kind {
	case BrokerNone:
		return nil
	case BrokerSQS:
		if err := allNonEmpty(map[string]string{
			SQSQueueURLEnv: b.AWS.SQSQueueURL,
		}); err != nil {
			return fmt.Errorf("AWS configuration incomplete: %w", err)
		}
	case BrokerAMQP:
		if err := allNonEmpty(map[string]string{
			AMQPURLEnv: b.AMQP.URL,
		}); err != nil {
			return fmt.Errorf("AMQP configuration incomplete: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBroker, b.Kind)
	}
	return nil
}

func getEnvAsBool(name string, defaultValue bool) bool {
	if val, err := strconv.ParseBool(os.Getenv(name)); err == nil {
		return val
	}
	return defaultValue
}

func getEnvAsDuration(name string, defaultValue time.Duration) time.Duration {
	if val, err := time.ParseDuration(os.Getenv(name)); err == nil && val > 0 {
		return val
	}
	return defaultValue
}

func getEnv(name, defaultValue string) string {
	if val := os.Getenv(name); val != "" {
		return val
	}
	return defaultValue
}

// ApplyEnvFile loads environment variables from the specified .env files.
func ApplyEnvFile(files ...string) error {
	err := godotenv.Load(files...)
	if err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

func applyDefaultEnvFile() {
	envPath := os.Getenv(EnvFilePath)
	if envPath == "" {
		envPath = DefaultEnvFilePath
	}
	if err := ApplyEnvFile(envPath); err != nil {
		// just log the error, maybe all envs are set in another way
		slog.Info("failed to load from .env", slog.Any("err", err))
	}
}

func brokerFromEnv() Broker {
	return Broker{
		Kind:           getEnv(EventBrokerEnv, BrokerNone),
		OutboxInterval: getEnvAsDuration(OutboxIntervalEnv, defaultOutboxInterval),
		AWS: AWSConfig{
			Region:      os.Getenv(AWSRegionEnv),
			Endpoint:    os.Getenv(AWSEndpointEnv),
			SQSQueueURL: os.Getenv(SQSQueueURLEnv),
		},
		AMQP: AMQPConfig{
			URL:   os.Getenv(AMQPURLEnv),
			Queue: getEnv(AMQPQueueEnv, defaultAMQPQueue),
		},
	}
}

// LoadFromEnv loads the storefront configuration from environment variables and validates it.
func LoadFromEnv() (*Config, error) {
	applyDefaultEnvFile()

	conf := &Config{
		DebugMode: getEnvAsBool(DebugModeEnv, false),
		Database: DB{
			Host:     os.Getenv(DBHostEnv),
			User:     os.Getenv(DBUserEnv),
			Password: os.Getenv(DBPassEnv),
			Name:     os.Getenv(DBNameEnv),
			Port:     os.Getenv(DBPortEnv),
		},
		HTTPServer: Server{
			Port: os.Getenv(HTTPServerPortEnv),
		},
		MetricsServer: Server{
			Port: os.Getenv(MetricsServerPortEnv),
		},
		Auth: Auth{
			JWTSecret:     os.Getenv(AuthJWTSecretEnv),
			SessionTTL:    getEnvAsDuration(AuthSessionTTLEnv, defaultSessionTTL),
			CookieSecure:  getEnvAsBool(AuthCookieSecureEnv, false),
			AdminEmail:    os.Getenv(AdminEmailEnv),
			AdminPassword: os.Getenv(AdminPasswordEnv),
		},
		Broker: brokerFromEnv(),
	}

	if err := conf.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return conf, nil
}

// LoadBrokerFromEnv loads only the broker settings, for processes that never touch the database.
func LoadBrokerFromEnv() (*Broker, error) {
	applyDefaultEnvFile()

	broker := brokerFromEnv()
	if broker.Kind == BrokerNone {
		return nil, fmt.Errorf("%w for key: %s", ErrMissingConfig, EventBrokerEnv)
	}
	if err := broker.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &broker, nil
}
