package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/billing"
	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/plans"
	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/store"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

var (
	ErrInvalidRequest = errors.New("accessKey and tier are required")
	ErrInvalidTier    = errors.New("invalid tier")
)

// SessionCreator creates hosted checkout sessions at the payment provider.
type SessionCreator interface {
	NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeSessions creates sessions through the Stripe API.
type StripeSessions struct{}

func NewStripeSessions(apiKey string) StripeSessions {
	stripe.Key = apiKey
	return StripeSessions{}
}

func (StripeSessions) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return session.New(params)
}

type CheckoutResult struct {
	URL       string
	SessionID string
}

// CheckoutService starts subscription checkouts for a tier.
type CheckoutService struct {
	accounts   store.AccountStore
	sessions   SessionCreator
	successURL string
	cancelURL  string
}

func NewCheckoutService(accounts store.AccountStore, sessions SessionCreator, successURL, cancelURL string) *CheckoutService {
	return &CheckoutService{
		accounts:   accounts,
		sessions:   sessions,
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

func (s *CheckoutService) CreateSession(ctx context.Context, accessKey, tier string) (*CheckoutResult, error) {
	accessKey = strings.TrimSpace(accessKey)
	if accessKey == "" || strings.TrimSpace(tier) == "" {
		return nil, ErrInvalidRequest
	}
	plan := plans.PlanByTier(tier)
	if plan == nil || !plan.Purchasable() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTier, tier)
	}

	var email string
	acc, err := s.accounts.Get(ctx, accessKey)
	switch {
	case err == nil:
		email = acc.Email
	case errors.Is(err, store.ErrAccountNotFound):
		slog.Warn("checkout for unknown account", "access_key", accessKey)
	default:
		slog.Warn("checkout email lookup failed", "access_key", accessKey, "error", err)
	}

	metadata := map[string]string{
		billing.MetadataAccessKey:   accessKey,
		billing.MetadataTier:        plan.Tier,
		billing.MetadataSubmissions: strconv.Itoa(plan.MaxSubmissions),
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String("usd"),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(plan.Name + " plan"),
					},
					UnitAmount: stripe.Int64(plan.PriceMonthly),
					Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
						Interval: stripe.String("month"),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(s.successURL),
		CancelURL:         stripe.String(s.cancelURL),
		ClientReferenceID: stripe.String(accessKey),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	if email != "" {
		params.CustomerEmail = stripe.String(email)
	}

	sess, err := s.sessions.NewCheckoutSession(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	slog.Info("checkout session created", "access_key", accessKey, "tier", plan.Tier, "session_id", sess.ID)
	return &CheckoutResult{URL: sess.URL, SessionID: sess.ID}, nil
}
