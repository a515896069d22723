package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type CheckoutHandler struct {
	checkoutService *services.CheckoutService
}

func NewCheckoutHandler(checkoutService *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

func (h *CheckoutHandler) Create(c *fiber.Ctx) error {
	var req dto.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "InvalidRequest", Message: "Invalid request body",
		})
	}

	res, err := h.checkoutService.CreateSession(c.UserContext(), req.AccessKey, req.Tier)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidRequest):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: "InvalidRequest", Message: err.Error(),
			})
		case errors.Is(err, services.ErrInvalidTier):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: "InvalidTier", Message: err.Error(),
			})
		}
		slog.Error("checkout session failed", "access_key", req.AccessKey, "action", "checkout", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "Failed to create checkout session",
		})
	}

	return c.JSON(dto.CheckoutResponse{
		Success:   true,
		URL:       res.URL,
		SessionID: res.SessionID,
	})
}
