package handlers

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/store"
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	accounts store.AccountStore
}

func NewHealthHandler(accounts store.AccountStore) *HealthHandler {
	return &HealthHandler{accounts: accounts}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	storeStatus := "ok"
	if err := h.accounts.Ping(ctx); err != nil {
		storeStatus = "unhealthy: " + err.Error()
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Store:     storeStatus,
	})
}
