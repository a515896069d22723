package handlers

import (
	"errors"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/billing"
	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/services"
	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
)

type WebhookHandler struct {
	dispatcher *services.WebhookDispatcher
}

func NewWebhookHandler(dispatcher *services.WebhookDispatcher) *WebhookHandler {
	return &WebhookHandler{dispatcher: dispatcher}
}

// HandleStripe authenticates the raw body against the Stripe-Signature
// header and applies the event. Anything that cannot succeed on retry is
// acknowledged with 200.
func (h *WebhookHandler) HandleStripe(c *fiber.Ctx) error {
	start := time.Now()
	traceID := requestID(c)

	result, err := h.dispatcher.Dispatch(c.UserContext(), c.Body(), c.Get(billing.SignatureHeader))
	latency := time.Since(start).Milliseconds()

	switch {
	case errors.Is(err, billing.ErrInvalidSignature):
		slog.Warn("webhook signature rejected", "trace_id", traceID, "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "Invalid signature",
		})
	case errors.Is(err, billing.ErrMalformedEvent):
		slog.Warn("webhook payload rejected", "trace_id", traceID, "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "Invalid payload",
		})
	case err != nil:
		slog.Error("webhook processing failed",
			"trace_id", traceID,
			"event_id", result.EventID,
			"event_type", result.EventType,
			"action", "retry",
			"error", err,
			"latency_ms", latency,
		)
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.WithScope(func(scope *sentry.Scope) {
				scope.SetTag("event_type", result.EventType)
				scope.SetTag("event_id", result.EventID)
				hub.CaptureException(err)
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error:   "Webhook handler failed",
			Message: err.Error(),
		})
	}

	slog.Info("webhook processed",
		"trace_id", traceID,
		"event_id", result.EventID,
		"event_type", result.EventType,
		"duplicate", result.Duplicate,
		"skipped", result.Skipped != nil,
		"latency_ms", latency,
	)
	return c.JSON(dto.WebhookResponse{Success: true, Received: true})
}

// Preflight answers browser CORS checks for the webhook endpoint.
func (h *WebhookHandler) Preflight(c *fiber.Ctx) error {
	c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
	c.Set(fiber.HeaderAccessControlAllowMethods, "POST, OPTIONS")
	c.Set(fiber.HeaderAccessControlAllowHeaders, "Content-Type, "+billing.SignatureHeader)
	return c.SendStatus(fiber.StatusOK)
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return c.Get(fiber.HeaderXRequestID)
}
