// Package billingtest builds signed Stripe webhook payloads for tests.
package billingtest

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"
)

// Secret is the endpoint secret used by tests.
const Secret = "whsec_test_secret"

// Sign returns a Stripe-Signature header for payload signed at ts.
func Sign(payload []byte, secret string, ts time.Time) string {
	sig := webhook.ComputeSignature(ts, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(sig))
}

// SignNow signs payload with Secret at the current time.
func SignNow(payload []byte) string {
	return Sign(payload, Secret, time.Now())
}

// EventPayload renders an event envelope around object.
func EventPayload(id, eventType string, object map[string]interface{}) []byte {
	body, err := json.Marshal(map[string]interface{}{
		"id":          id,
		"object":      "event",
		"type":        eventType,
		"created":     time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC).Unix(),
		"api_version": "2020-08-27",
		"data": map[string]interface{}{
			"object": object,
		},
	})
	if err != nil {
		panic(err)
	}
	return body
}

// CheckoutCompleted renders a checkout.session.completed event.
func CheckoutCompleted(id string, metadata map[string]string, customerID, sessionID string) []byte {
	return EventPayload(id, "checkout.session.completed", map[string]interface{}{
		"id":           sessionID,
		"object":       "checkout.session",
		"customer":     customerID,
		"subscription": "sub_" + sessionID,
		"metadata":     metadata,
		"customer_details": map[string]interface{}{
			"email": "buyer@example.com",
		},
	})
}

// Invoice renders an invoice.* event for customerID.
func Invoice(id, eventType, customerID string, paidAt int64) []byte {
	return EventPayload(id, eventType, map[string]interface{}{
		"id":       "in_" + id,
		"object":   "invoice",
		"customer": customerID,
		"status_transitions": map[string]interface{}{
			"paid_at": paidAt,
		},
	})
}

// Subscription renders a customer.subscription.* event for customerID.
func Subscription(id, eventType, customerID, subscriptionID, status string) []byte {
	return EventPayload(id, eventType, map[string]interface{}{
		"id":       subscriptionID,
		"object":   "subscription",
		"customer": customerID,
		"status":   status,
	})
}
