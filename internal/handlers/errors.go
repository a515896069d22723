package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders errors that escape a handler, including fiber's own
// (404, 413 on oversized bodies).
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.ErrorResponse{Error: message})
}
