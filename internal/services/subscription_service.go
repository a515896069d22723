package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/billing"
	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/plans"
	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/store"
)

var (
	// ErrMissingMetadata means an event lacked the field needed to find its account.
	ErrMissingMetadata = errors.New("missing metadata")
	// ErrUnknownTier means a checkout event named a tier outside the plan table.
	ErrUnknownTier = errors.New("unknown tier")
	// ErrStoreWrite wraps persistence failures. These are worth a provider retry.
	ErrStoreWrite = errors.New("store write failed")
)

// IsSkippable reports whether err should be logged and acknowledged rather
// than retried: retrying the same event can never succeed.
func IsSkippable(err error) bool {
	return errors.Is(err, ErrMissingMetadata) ||
		errors.Is(err, ErrUnknownTier) ||
		errors.Is(err, billing.ErrMalformedEvent)
}

// SubscriptionService applies provider events to account subscription records.
type SubscriptionService struct {
	accounts store.AccountStore
	now      func() time.Time
}

func NewSubscriptionService(accounts store.AccountStore) *SubscriptionService {
	return &SubscriptionService{
		accounts: accounts,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// HandleEvent applies the transition for event. A nil return means the
// transition was applied or was a legitimate no-op.
func (s *SubscriptionService) HandleEvent(ctx context.Context, event billing.Event) error {
	switch ev := event.(type) {
	case billing.CheckoutCompleted:
		return s.handleCheckoutCompleted(ctx, ev)
	case billing.InvoicePaid:
		return s.handleInvoicePaid(ctx, ev)
	case billing.InvoicePaymentFailed:
		return s.handleInvoicePaymentFailed(ctx, ev)
	case billing.SubscriptionCreated:
		slog.Info("subscription created", "event_id", ev.ID, "customer_id", ev.CustomerID, "subscription_id", ev.SubscriptionID)
		return nil
	case billing.SubscriptionUpdated:
		return s.handleSubscriptionUpdated(ctx, ev)
	case billing.SubscriptionDeleted:
		return s.handleSubscriptionDeleted(ctx, ev)
	case billing.Unknown:
		slog.Info("ignoring unhandled event type", "event_id", ev.ID, "event_type", ev.Type)
		return nil
	default:
		return nil
	}
}

func (s *SubscriptionService) handleCheckoutCompleted(ctx context.Context, ev billing.CheckoutCompleted) error {
	if ev.AccessKey == "" {
		return fmt.Errorf("%w: checkout session %s has no accessKey", ErrMissingMetadata, ev.SessionID)
	}
	plan := plans.PlanByTier(ev.Tier)
	if plan == nil {
		return fmt.Errorf("%w: %q on checkout session %s", ErrUnknownTier, ev.Tier, ev.SessionID)
	}
	if ev.Submissions != "" {
		if n, err := strconv.Atoi(ev.Submissions); err != nil || n != plan.MaxSubmissions {
			slog.Warn("checkout submissions metadata disagrees with plan table",
				"access_key", ev.AccessKey, "tier", plan.Tier, "metadata", ev.Submissions, "quota", plan.MaxSubmissions)
		}
	}

	acc, err := s.accounts.Get(ctx, ev.AccessKey)
	if errors.Is(err, store.ErrAccountNotFound) {
		slog.Warn("checkout completed for unknown account", "access_key", ev.AccessKey, "event_id", ev.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}

	tier := plan.Tier
	status := models.StatusActive
	quota := plan.MaxSubmissions
	update := store.AccountUpdate{
		SubscriptionTier:   &tier,
		SubscriptionStatus: &status,
		MaxSubmissions:     &quota,
		StripeSessionID:    &ev.SessionID,
		UpdatedAt:          s.nextUpdatedAt(acc),
	}
	if ev.CustomerID != "" {
		update.StripeCustomerID = &ev.CustomerID
	}
	if ev.SubscriptionID != "" {
		update.StripeSubscriptionID = &ev.SubscriptionID
	}
	// Checkout email only fills a missing one.
	if acc.Email == "" && ev.Email != "" {
		update.Email = &ev.Email
	}

	if err := s.write(ctx, ev.AccessKey, update); err != nil {
		return err
	}
	slog.Info("subscription activated", "access_key", ev.AccessKey, "tier", tier, "event_id", ev.ID)
	return nil
}

func (s *SubscriptionService) handleInvoicePaid(ctx context.Context, ev billing.InvoicePaid) error {
	acc, err := s.lookupCustomer(ctx, ev.CustomerID, ev.EventMeta)
	if acc == nil || err != nil {
		return err
	}
	if isCancelled(acc, ev.EventMeta) {
		return nil
	}

	status := models.StatusActive
	paidAt := ev.PaidAt
	if paidAt.IsZero() {
		paidAt = s.now()
	}
	return s.write(ctx, acc.AccessKey, store.AccountUpdate{
		SubscriptionStatus: &status,
		LastPaymentDate:    &paidAt,
		UpdatedAt:          s.nextUpdatedAt(acc),
	})
}

func (s *SubscriptionService) handleInvoicePaymentFailed(ctx context.Context, ev billing.InvoicePaymentFailed) error {
	acc, err := s.lookupCustomer(ctx, ev.CustomerID, ev.EventMeta)
	if acc == nil || err != nil {
		return err
	}
	if isCancelled(acc, ev.EventMeta) {
		return nil
	}

	status := models.StatusPaymentFailed
	if err := s.write(ctx, acc.AccessKey, store.AccountUpdate{
		SubscriptionStatus: &status,
		UpdatedAt:          s.nextUpdatedAt(acc),
	}); err != nil {
		return err
	}
	slog.Warn("payment failed", "access_key", acc.AccessKey, "event_id", ev.ID)
	return nil
}

func (s *SubscriptionService) handleSubscriptionUpdated(ctx context.Context, ev billing.SubscriptionUpdated) error {
	acc, err := s.lookupCustomer(ctx, ev.CustomerID, ev.EventMeta)
	if acc == nil || err != nil {
		return err
	}

	update := store.AccountUpdate{
		UpdatedAt: s.nextUpdatedAt(acc),
	}
	if ev.Status != "" {
		update.SubscriptionStatus = &ev.Status
	}
	if ev.SubscriptionID != "" {
		update.StripeSubscriptionID = &ev.SubscriptionID
	}
	return s.write(ctx, acc.AccessKey, update)
}

// handleSubscriptionDeleted downgrades the account to the free tier whatever its prior state.
func (s *SubscriptionService) handleSubscriptionDeleted(ctx context.Context, ev billing.SubscriptionDeleted) error {
	acc, err := s.lookupCustomer(ctx, ev.CustomerID, ev.EventMeta)
	if acc == nil || err != nil {
		return err
	}

	status := models.StatusCancelled
	tier := plans.TierFree
	quota := plans.FreeQuota
	if err := s.write(ctx, acc.AccessKey, store.AccountUpdate{
		SubscriptionStatus: &status,
		SubscriptionTier:   &tier,
		MaxSubmissions:     &quota,
		UpdatedAt:          s.nextUpdatedAt(acc),
	}); err != nil {
		return err
	}
	slog.Info("subscription cancelled", "access_key", acc.AccessKey, "event_id", ev.ID)
	return nil
}

// lookupCustomer returns (nil, nil) when no account carries customerID.
func (s *SubscriptionService) lookupCustomer(ctx context.Context, customerID string, meta billing.EventMeta) (*models.Account, error) {
	if customerID == "" {
		slog.Info("event has no customer id", "event_id", meta.ID, "event_type", meta.Type)
		return nil, nil
	}
	acc, err := s.accounts.FindByCustomerID(ctx, customerID)
	if errors.Is(err, store.ErrAccountNotFound) {
		slog.Info("no account for customer", "customer_id", customerID, "event_id", meta.ID, "event_type", meta.Type)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	return acc, nil
}

func (s *SubscriptionService) write(ctx context.Context, accessKey string, update store.AccountUpdate) error {
	err := s.accounts.Update(ctx, accessKey, update)
	if errors.Is(err, store.ErrAccountNotFound) {
		slog.Warn("account disappeared before update", "access_key", accessKey)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	return nil
}

// isCancelled reports whether acc has left the paid lifecycle. Only a new
// checkout brings a cancelled account back; invoice events for it (final
// proration, late retries) are ignored.
func isCancelled(acc *models.Account, meta billing.EventMeta) bool {
	if acc.SubscriptionStatus != models.StatusCancelled {
		return false
	}
	slog.Info("ignoring invoice event for cancelled account",
		"access_key", acc.AccessKey, "event_id", meta.ID, "event_type", meta.Type)
	return true
}

// nextUpdatedAt keeps updatedAt non-decreasing per record.
func (s *SubscriptionService) nextUpdatedAt(acc *models.Account) time.Time {
	now := s.now()
	if acc != nil && acc.UpdatedAt.After(now) {
		return acc.UpdatedAt
	}
	return now
}
