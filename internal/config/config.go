package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

const (
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"
)

type Config struct {
	// Store
	StoreBackend string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// DynamoDB
	AWSRegion             string
	DynamoDBEndpoint      string
	DynamoDBTable         string
	DynamoDBCustomerIndex string

	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string
	CheckoutSuccessURL  string
	CheckoutCancelURL   string

	// Event ledger
	RedisURL       string
	EventLedgerTTL time.Duration

	// Observability
	SentryDSN string
	AppEnv    string

	// Server
	Port        string
	CORSOrigins string
}

func Load() *Config {
	return &Config{
		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendPostgres)),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "formbuilder_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		AWSRegion:             getEnv("AWS_REGION", "us-east-1"),
		DynamoDBEndpoint:      getEnv("DYNAMODB_ENDPOINT", ""),
		DynamoDBTable:         getEnv("DYNAMODB_TABLE", ""),
		DynamoDBCustomerIndex: getEnv("DYNAMODB_CUSTOMER_INDEX", "stripeCustomerId-index"),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		CheckoutSuccessURL:  getEnv("CHECKOUT_SUCCESS_URL", "http://localhost:3000/billing/success"),
		CheckoutCancelURL:   getEnv("CHECKOUT_CANCEL_URL", "http://localhost:3000/billing/cancel"),

		RedisURL:       getEnv("REDIS_URL", ""),
		EventLedgerTTL: parseDuration(getEnv("EVENT_LEDGER_TTL", "72h"), 72*time.Hour),

		SentryDSN: getEnv("SENTRY_DSN", ""),
		AppEnv:    getEnv("APP_ENV", "development"),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}
}

// Validate reports every missing setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.StripeWebhookSecret == "" {
		errs = append(errs, errors.New("STRIPE_WEBHOOK_SECRET is required"))
	}
	if c.StripeSecretKey == "" {
		errs = append(errs, errors.New("STRIPE_SECRET_KEY is required"))
	}
	switch c.StoreBackend {
	case BackendPostgres:
		if c.DBPassword == "" {
			errs = append(errs, errors.New("DB_PASSWORD is required for the postgres backend"))
		}
	case BackendDynamoDB:
		if c.DynamoDBTable == "" {
			errs = append(errs, errors.New("DYNAMODB_TABLE is required for the dynamodb backend"))
		}
	default:
		errs = append(errs, errors.New("STORE_BACKEND must be postgres or dynamodb, got "+c.StoreBackend))
	}
	return errors.Join(errs...)
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// TracesSampleRate samples every transaction outside production.
func (c *Config) TracesSampleRate() float64 {
	if c.IsProduction() {
		return 0.2
	}
	return 1.0
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
