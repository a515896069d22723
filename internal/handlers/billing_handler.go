package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/plans"
	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/store"
	"github.com/gofiber/fiber/v2"
)

const AccessKeyHeader = "X-Access-Key"

type BillingHandler struct {
	accounts store.AccountStore
}

func NewBillingHandler(accounts store.AccountStore) *BillingHandler {
	return &BillingHandler{accounts: accounts}
}

// GetSubscription reports the current tier and quota of an account.
func (h *BillingHandler) GetSubscription(c *fiber.Ctx) error {
	accessKey := strings.TrimSpace(c.Get(AccessKeyHeader))
	if accessKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "InvalidRequest", Message: AccessKeyHeader + " header is required",
		})
	}

	acc, err := h.accounts.Get(c.UserContext(), accessKey)
	if errors.Is(err, store.ErrAccountNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: "Account not found",
		})
	}
	if err != nil {
		slog.Error("billing lookup failed", "access_key", accessKey, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "Failed to load subscription",
		})
	}

	tier := plans.Normalize(acc.SubscriptionTier)
	plan := plans.PlanByTier(tier)
	return c.JSON(dto.BillingResponse{
		Success:         true,
		Tier:            tier,
		Status:          acc.SubscriptionStatus,
		MaxSubmissions:  acc.MaxSubmissions,
		Unlimited:       plan != nil && plan.IsUnlimited(),
		LastPaymentDate: acc.LastPaymentDate,
		UpdatedAt:       acc.UpdatedAt,
	})
}
