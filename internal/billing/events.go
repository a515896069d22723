package billing

import (
	"encoding/json"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
)

// Checkout session metadata keys written by the checkout endpoint.
const (
	MetadataAccessKey   = "accessKey"
	MetadataTier        = "tier"
	MetadataSubmissions = "submissions"
)

// Event is one decoded provider notification. The concrete type is one of
// CheckoutCompleted, InvoicePaid, InvoicePaymentFailed, SubscriptionCreated,
// SubscriptionUpdated, SubscriptionDeleted or Unknown.
type Event interface {
	Meta() EventMeta
	isEvent()
}

// EventMeta carries the envelope fields shared by every event.
type EventMeta struct {
	ID      string
	Type    string
	Created time.Time
}

func (m EventMeta) Meta() EventMeta { return m }
func (EventMeta) isEvent()          {}

type CheckoutCompleted struct {
	EventMeta
	AccessKey      string
	Tier           string
	Submissions    string
	CustomerID     string
	SessionID      string
	SubscriptionID string
	Email          string
}

type InvoicePaid struct {
	EventMeta
	CustomerID string
	PaidAt     time.Time
}

type InvoicePaymentFailed struct {
	EventMeta
	CustomerID string
}

type SubscriptionCreated struct {
	EventMeta
	CustomerID     string
	SubscriptionID string
	Status         string
}

type SubscriptionUpdated struct {
	EventMeta
	CustomerID     string
	SubscriptionID string
	Status         string
}

type SubscriptionDeleted struct {
	EventMeta
	CustomerID     string
	SubscriptionID string
}

// Unknown is any event type this service does not act on.
type Unknown struct {
	EventMeta
}

// Decode maps a verified Stripe event onto the Event union. Unrecognized
// types decode to Unknown without error.
func Decode(e stripe.Event) (Event, error) {
	meta := EventMeta{
		ID:   e.ID,
		Type: string(e.Type),
	}
	if e.Created > 0 {
		meta.Created = time.Unix(e.Created, 0).UTC()
	}

	switch e.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var s stripe.CheckoutSession
		if err := unmarshalData(e, &s); err != nil {
			return nil, err
		}
		ev := CheckoutCompleted{
			EventMeta:      meta,
			AccessKey:      s.Metadata[MetadataAccessKey],
			Tier:           s.Metadata[MetadataTier],
			Submissions:    s.Metadata[MetadataSubmissions],
			CustomerID:     customerID(s.Customer),
			SessionID:      s.ID,
			SubscriptionID: subscriptionID(s.Subscription),
			Email:          s.CustomerEmail,
		}
		if s.CustomerDetails != nil && s.CustomerDetails.Email != "" {
			ev.Email = s.CustomerDetails.Email
		}
		return ev, nil

	case stripe.EventTypeInvoicePaymentSucceeded, stripe.EventTypeInvoicePaid:
		var inv stripe.Invoice
		if err := unmarshalData(e, &inv); err != nil {
			return nil, err
		}
		paidAt := meta.Created
		if inv.StatusTransitions != nil && inv.StatusTransitions.PaidAt > 0 {
			paidAt = time.Unix(inv.StatusTransitions.PaidAt, 0).UTC()
		}
		return InvoicePaid{EventMeta: meta, CustomerID: customerID(inv.Customer), PaidAt: paidAt}, nil

	case stripe.EventTypeInvoicePaymentFailed:
		var inv stripe.Invoice
		if err := unmarshalData(e, &inv); err != nil {
			return nil, err
		}
		return InvoicePaymentFailed{EventMeta: meta, CustomerID: customerID(inv.Customer)}, nil

	case stripe.EventTypeCustomerSubscriptionCreated:
		var sub stripe.Subscription
		if err := unmarshalData(e, &sub); err != nil {
			return nil, err
		}
		return SubscriptionCreated{
			EventMeta:      meta,
			CustomerID:     customerID(sub.Customer),
			SubscriptionID: sub.ID,
			Status:         string(sub.Status),
		}, nil

	case stripe.EventTypeCustomerSubscriptionUpdated:
		var sub stripe.Subscription
		if err := unmarshalData(e, &sub); err != nil {
			return nil, err
		}
		return SubscriptionUpdated{
			EventMeta:      meta,
			CustomerID:     customerID(sub.Customer),
			SubscriptionID: sub.ID,
			Status:         string(sub.Status),
		}, nil

	case stripe.EventTypeCustomerSubscriptionDeleted:
		var sub stripe.Subscription
		if err := unmarshalData(e, &sub); err != nil {
			return nil, err
		}
		return SubscriptionDeleted{
			EventMeta:      meta,
			CustomerID:     customerID(sub.Customer),
			SubscriptionID: sub.ID,
		}, nil

	default:
		return Unknown{EventMeta: meta}, nil
	}
}

func unmarshalData(e stripe.Event, v interface{}) error {
	if e.Data == nil || len(e.Data.Raw) == 0 {
		return fmt.Errorf("%w: %s has no data object", ErrMalformedEvent, e.Type)
	}
	if err := json.Unmarshal(e.Data.Raw, v); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrMalformedEvent, e.Type, err)
	}
	return nil
}

func customerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

func subscriptionID(s *stripe.Subscription) string {
	if s == nil {
		return ""
	}
	return s.ID
}
