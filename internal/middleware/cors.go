package middleware

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/formbuilder-backend/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// WebhookPrefix is excluded from the global CORS policy; webhook routes
// answer their own preflight.
const WebhookPrefix = "/api/webhooks/"

func CORS(cfg *config.Config) fiber.Handler {
	return cors.New(cors.Config{
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), WebhookPrefix)
		},
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, X-Access-Key",
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: false,
	})
}

func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	}
}
