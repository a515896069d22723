package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/models"
	"gorm.io/gorm"
)

// GormAccountStore keeps accounts in the relational database.
type GormAccountStore struct {
	db *gorm.DB
}

func NewGormAccountStore(db *gorm.DB) *GormAccountStore {
	return &GormAccountStore{db: db}
}

func (s *GormAccountStore) Get(ctx context.Context, accessKey string) (*models.Account, error) {
	var acc models.Account
	err := s.db.WithContext(ctx).Where("access_key = ?", accessKey).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &acc, nil
}

// FindByCustomerID returns the account with the lowest access key among those
// carrying customerID.
func (s *GormAccountStore) FindByCustomerID(ctx context.Context, customerID string) (*models.Account, error) {
	var accounts []models.Account
	err := s.db.WithContext(ctx).
		Where("stripe_customer_id = ?", customerID).
		Order("access_key ASC").
		Limit(2).
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("find account by customer: %w", err)
	}
	if len(accounts) == 0 {
		return nil, ErrAccountNotFound
	}
	if len(accounts) > 1 {
		slog.Warn("multiple accounts share a stripe customer id",
			"customer_id", customerID, "access_key", accounts[0].AccessKey)
	}
	return &accounts[0], nil
}

func (s *GormAccountStore) Update(ctx context.Context, accessKey string, update AccountUpdate) error {
	result := s.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("access_key = ?", accessKey).
		Updates(updateColumns(update))
	if result.Error != nil {
		return fmt.Errorf("update account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (s *GormAccountStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func updateColumns(u AccountUpdate) map[string]interface{} {
	cols := map[string]interface{}{
		"updated_at": u.UpdatedAt,
	}
	if u.Email != nil {
		cols["email"] = *u.Email
	}
	if u.SubscriptionTier != nil {
		cols["subscription_tier"] = *u.SubscriptionTier
	}
	if u.SubscriptionStatus != nil {
		cols["subscription_status"] = *u.SubscriptionStatus
	}
	if u.StripeCustomerID != nil {
		cols["stripe_customer_id"] = *u.StripeCustomerID
	}
	if u.StripeSubscriptionID != nil {
		cols["stripe_subscription_id"] = *u.StripeSubscriptionID
	}
	if u.StripeSessionID != nil {
		cols["stripe_session_id"] = *u.StripeSessionID
	}
	if u.MaxSubmissions != nil {
		cols["max_submissions"] = *u.MaxSubmissions
	}
	if u.LastPaymentDate != nil {
		cols["last_payment_date"] = *u.LastPaymentDate
	}
	return cols
}
