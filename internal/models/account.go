package models

import "time"

const (
	StatusActive        = "active"
	StatusPaymentFailed = "payment_failed"
	StatusCancelled     = "cancelled"
)

// Account is the subscription record of one form-builder account, keyed by its access key.
type Account struct {
	AccessKey            string     `gorm:"primaryKey;size:128" json:"accessKey"`
	Email                string     `gorm:"size:255" json:"email,omitempty"`
	SubscriptionTier     string     `gorm:"size:32;not null;default:'free'" json:"subscriptionTier"`
	SubscriptionStatus   string     `gorm:"size:50" json:"subscriptionStatus,omitempty"`
	StripeCustomerID     string     `gorm:"size:255;index" json:"stripeCustomerId,omitempty"`
	StripeSubscriptionID string     `gorm:"size:255" json:"stripeSubscriptionId,omitempty"`
	StripeSessionID      string     `gorm:"size:255" json:"stripeSessionId,omitempty"`
	MaxSubmissions       int        `gorm:"not null;default:1000" json:"maxSubmissions"`
	LastPaymentDate      *time.Time `json:"lastPaymentDate,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

func (Account) TableName() string {
	return "accounts"
}
