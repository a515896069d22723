package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/billing"
	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/store"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// PostgreSQL holds accounts on the postgres backend and system logs on both
	var db *gorm.DB
	if cfg.StoreBackend == config.BackendPostgres || cfg.DBPassword != "" {
		var err error
		db, err = database.Connect(cfg)
		if err != nil {
			slog.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		migrate := database.MigrateLogs
		if cfg.StoreBackend == config.BackendPostgres {
			migrate = database.Migrate
		}
		if err := migrate(db); err != nil {
			slog.Error("migration failed", "error", err)
			os.Exit(1)
		}
	}

	// PostgreSQL log handler (ERROR+ async batch) and 30-day retention
	var pgLogHandler *logging.PGHandler
	cleanupDone := make(chan struct{})
	if db != nil {
		pgLogHandler = logging.WithDatabase(db)
		logging.StartCleanup(db, cleanupDone)
	}

	accounts, err := newAccountStore(ctx, cfg, db)
	if err != nil {
		slog.Error("account store init failed", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	slog.Info("account store ready", "backend", cfg.StoreBackend)

	// Event ledger (optional)
	var ledger services.EventLedger = services.NopEventLedger{}
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unreachable, duplicate events will be re-applied", "error", err)
		}
		ledger = services.NewRedisEventLedger(redisClient, cfg.EventLedgerTTL)
	}

	// Services
	subscriptionService := services.NewSubscriptionService(accounts)
	dispatcher := services.NewWebhookDispatcher(billing.NewVerifier(cfg.StripeWebhookSecret), subscriptionService, ledger)
	checkoutService := services.NewCheckoutService(
		accounts,
		services.NewStripeSessions(cfg.StripeSecretKey),
		cfg.CheckoutSuccessURL,
		cfg.CheckoutCancelURL,
	)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: cfg.TracesSampleRate(),
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	routes.Setup(app, routes.Handlers{
		Health:   handlers.NewHealthHandler(accounts),
		Webhook:  handlers.NewWebhookHandler(dispatcher),
		Checkout: handlers.NewCheckoutHandler(checkoutService),
		Billing:  handlers.NewBillingHandler(accounts),
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	if pgLogHandler != nil {
		pgLogHandler.Stop()
	}
	sentry.Flush(2 * time.Second)

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}
	if db != nil {
		database.Close(db)
	}

	slog.Info("server stopped")
}

func newAccountStore(ctx context.Context, cfg *config.Config, db *gorm.DB) (store.AccountStore, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		return store.NewGormAccountStore(db), nil
	case config.BackendDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.DynamoDBEndpoint != "" {
				o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
			}
		})
		return store.NewDynamoAccountStore(client, cfg.DynamoDBTable, cfg.DynamoDBCustomerIndex), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
