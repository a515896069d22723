package services

import (
	"context"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/billing"
)

// DispatchResult describes what happened to an authenticated event.
type DispatchResult struct {
	EventID   string
	EventType string
	Duplicate bool
	// Skipped is set when the event could never be applied (bad metadata,
	// unknown tier, undecodable data). It is still acknowledged.
	Skipped error
}

// WebhookDispatcher verifies, decodes and routes a single provider event.
type WebhookDispatcher struct {
	verifier      *billing.Verifier
	subscriptions *SubscriptionService
	ledger        EventLedger
}

func NewWebhookDispatcher(verifier *billing.Verifier, subscriptions *SubscriptionService, ledger EventLedger) *WebhookDispatcher {
	if ledger == nil {
		ledger = NopEventLedger{}
	}
	return &WebhookDispatcher{
		verifier:      verifier,
		subscriptions: subscriptions,
		ledger:        ledger,
	}
}

// Dispatch returns billing.ErrInvalidSignature or billing.ErrMalformedEvent
// for payloads that must be rejected, ErrStoreWrite when the transition
// should be retried by the provider, and nil otherwise.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, payload []byte, signature string) (DispatchResult, error) {
	raw, err := d.verifier.Verify(payload, signature)
	if err != nil {
		return DispatchResult{}, err
	}
	result := DispatchResult{EventID: raw.ID, EventType: string(raw.Type)}

	if raw.ID != "" {
		seen, err := d.ledger.Seen(ctx, raw.ID)
		if err != nil {
			slog.Warn("event ledger unavailable", "event_id", raw.ID, "error", err)
		} else if seen {
			result.Duplicate = true
			slog.Info("duplicate event acknowledged", "event_id", raw.ID, "event_type", result.EventType)
			return result, nil
		}
	}

	event, err := billing.Decode(raw)
	if err == nil {
		err = d.subscriptions.HandleEvent(ctx, event)
	}

	if err != nil {
		if !IsSkippable(err) {
			return result, err
		}
		result.Skipped = err
		slog.Error("event skipped", "event_id", raw.ID, "event_type", result.EventType, "action", "skip", "error", err)
	}

	if raw.ID != "" {
		if err := d.ledger.MarkProcessed(ctx, raw.ID); err != nil {
			slog.Warn("failed to record processed event", "event_id", raw.ID, "error", err)
		}
	}
	return result, nil
}
