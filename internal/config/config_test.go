package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"STORE_BACKEND", "PORT", "EVENT_LEDGER_TTL", "DYNAMODB_CUSTOMER_INDEX", "APP_ENV"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 72*time.Hour, cfg.EventLedgerTTL)
	assert.Equal(t, "stripeCustomerId-index", cfg.DynamoDBCustomerIndex)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "DynamoDB")
	t.Setenv("DYNAMODB_TABLE", "accounts")
	t.Setenv("EVENT_LEDGER_TTL", "24h")
	t.Setenv("APP_ENV", "production")

	cfg := Load()
	assert.Equal(t, BackendDynamoDB, cfg.StoreBackend)
	assert.Equal(t, "accounts", cfg.DynamoDBTable)
	assert.Equal(t, 24*time.Hour, cfg.EventLedgerTTL)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_InvalidTTLFallsBack(t *testing.T) {
	t.Setenv("EVENT_LEDGER_TTL", "soon")
	assert.Equal(t, 72*time.Hour, Load().EventLedgerTTL)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			StoreBackend:        BackendPostgres,
			DBPassword:          "secret",
			StripeSecretKey:     "sk_test_1",
			StripeWebhookSecret: "whsec_1",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr []string
	}{
		{"valid postgres", func(c *Config) {}, nil},
		{"valid dynamodb", func(c *Config) {
			c.StoreBackend = BackendDynamoDB
			c.DBPassword = ""
			c.DynamoDBTable = "accounts"
		}, nil},
		{"missing stripe secrets", func(c *Config) {
			c.StripeSecretKey = ""
			c.StripeWebhookSecret = ""
		}, []string{"STRIPE_WEBHOOK_SECRET", "STRIPE_SECRET_KEY"}},
		{"postgres without password", func(c *Config) { c.DBPassword = "" }, []string{"DB_PASSWORD"}},
		{"dynamodb without table", func(c *Config) { c.StoreBackend = BackendDynamoDB }, []string{"DYNAMODB_TABLE"}},
		{"unknown backend", func(c *Config) { c.StoreBackend = "mongo" }, []string{"STORE_BACKEND"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestTracesSampleRate(t *testing.T) {
	assert.Equal(t, 1.0, (&Config{AppEnv: "development"}).TracesSampleRate())
	assert.Equal(t, 0.2, (&Config{AppEnv: "production"}).TracesSampleRate())
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBPort: "5433", DBUser: "u", DBPassword: "p", DBName: "forms", DBSSLMode: "require"}
	assert.Equal(t, "host=db user=u password=p dbname=forms port=5433 sslmode=require TimeZone=UTC", cfg.DSN())
}
