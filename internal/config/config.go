package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	HTTPPort string `envconfig:"HTTP_PORT" default:"8001"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	MongoURI    string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDBName string `envconfig:"MONGO_DB_NAME" default:"marketplace"`
	// Zero values fall back to the repository defaults.
	MongoConnectTimeout time.Duration `envconfig:"MONGO_CONNECT_TIMEOUT" default:"10s"`
	MongoMaxPoolSize    uint64        `envconfig:"MONGO_MAX_POOL_SIZE" default:"100"`
	MongoMinPoolSize    uint64        `envconfig:"MONGO_MIN_POOL_SIZE" default:"10"`

	// Empty RedisAddr disables the cart cache.
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	// Empty KafkaBrokers disables order event publishing.
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"order-events"`
	// RelayInterval is how often unpublished order confirmations are retried.
	RelayInterval time.Duration `envconfig:"CONFIRMATION_RELAY_INTERVAL" default:"10s"`

	JWTSecret          string `envconfig:"JWT_SECRET_KEY" default:"your-secret-key"`
	JWTExpirationHours int    `envconfig:"JWT_EXPIRATION_HOURS" default:"24"`

	StripeAPIKey        string `envconfig:"STRIPE_API_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	StripeAPIURL        string `envconfig:"STRIPE_API_URL"`

	// Empty OTLPEndpoint keeps tracing local.
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`

	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	MaxRequestBodySize int64         `envconfig:"MAX_REQUEST_BODY_SIZE" default:"1048576"`
}

// Load reads an optional .env file and then the process environment.
func Load(files ...string) (*Config, error) {
	// A missing .env is expected outside local development.
	_ = godotenv.Load(files...)

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpirationHours) * time.Hour
}

func (c *Config) Validate() error {
	if c.JWTExpirationHours <= 0 {
		return errors.New("JWT_EXPIRATION_HOURS must be positive")
	}
	if c.RelayInterval <= 0 {
		return errors.New("CONFIRMATION_RELAY_INTERVAL must be positive")
	}
	if c.IsProduction() {
		if c.JWTSecret == "" || c.JWTSecret == "your-secret-key" {
			return errors.New("JWT_SECRET_KEY must be set in production")
		}
		if c.StripeWebhookSecret == "" {
			return errors.New("STRIPE_WEBHOOK_SECRET must be set in production")
		}
	}
	return nil
}
