package dto

import "time"

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type WebhookResponse struct {
	Success  bool `json:"success"`
	Received bool `json:"received"`
}

type CheckoutRequest struct {
	AccessKey string `json:"accessKey"`
	Tier      string `json:"tier"`
}

type CheckoutResponse struct {
	Success   bool   `json:"success"`
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

type BillingResponse struct {
	Success         bool       `json:"success"`
	Tier            string     `json:"tier"`
	Status          string     `json:"status"`
	MaxSubmissions  int        `json:"maxSubmissions"`
	Unlimited       bool       `json:"unlimited"`
	LastPaymentDate *time.Time `json:"lastPaymentDate,omitempty"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Store     string `json:"store"`
}
