package store

import (
	"context"
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/models"
)

// ErrAccountNotFound is returned when no account matches a lookup or update key.
var ErrAccountNotFound = errors.New("account not found")

// AccountStore persists account subscription records. Lookups are by access
// key (primary) or by Stripe customer id (secondary). Updates touch a single
// record and only the attributes set on the AccountUpdate.
type AccountStore interface {
	Get(ctx context.Context, accessKey string) (*models.Account, error)
	FindByCustomerID(ctx context.Context, customerID string) (*models.Account, error)
	Update(ctx context.Context, accessKey string, update AccountUpdate) error
	Ping(ctx context.Context) error
}

// AccountUpdate is a partial attribute set. Nil fields are left untouched;
// UpdatedAt is always written.
type AccountUpdate struct {
	Email                *string
	SubscriptionTier     *string
	SubscriptionStatus   *string
	StripeCustomerID     *string
	StripeSubscriptionID *string
	StripeSessionID      *string
	MaxSubmissions       *int
	LastPaymentDate      *time.Time
	UpdatedAt            time.Time
}

// Apply copies the set attributes onto acc.
func (u AccountUpdate) Apply(acc *models.Account) {
	if u.Email != nil {
		acc.Email = *u.Email
	}
	if u.SubscriptionTier != nil {
		acc.SubscriptionTier = *u.SubscriptionTier
	}
	if u.SubscriptionStatus != nil {
		acc.SubscriptionStatus = *u.SubscriptionStatus
	}
	if u.StripeCustomerID != nil {
		acc.StripeCustomerID = *u.StripeCustomerID
	}
	if u.StripeSubscriptionID != nil {
		acc.StripeSubscriptionID = *u.StripeSubscriptionID
	}
	if u.StripeSessionID != nil {
		acc.StripeSessionID = *u.StripeSessionID
	}
	if u.MaxSubmissions != nil {
		acc.MaxSubmissions = *u.MaxSubmissions
	}
	if u.LastPaymentDate != nil {
		t := *u.LastPaymentDate
		acc.LastPaymentDate = &t
	}
	acc.UpdatedAt = u.UpdatedAt
}
