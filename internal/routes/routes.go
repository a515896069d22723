package routes

import (
	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Health   *handlers.HealthHandler
	Webhook  *handlers.WebhookHandler
	Checkout *handlers.CheckoutHandler
	Billing  *handlers.BillingHandler
}

func Setup(app *fiber.App, h Handlers) {
	api := app.Group("/api")

	api.Get("/health", h.Health.Check)

	// Checkout creates paid provider sessions: 10 req/min per IP
	api.Post("/checkout", middleware.RateLimit(10), h.Checkout.Create)

	api.Get("/billing", middleware.RateLimit(60), h.Billing.GetSubscription)

	// Webhooks authenticate by signature, not by caller; no rate limit so
	// provider retries are never throttled.
	webhooks := api.Group("/webhooks")
	webhooks.Post("/stripe", h.Webhook.HandleStripe)
	webhooks.Options("/stripe", h.Webhook.Preflight)
}
