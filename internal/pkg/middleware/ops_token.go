package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/foundersbridge/foundersbridge/internal/pkg/env"
)

const opsTokenHeader = "X-Ops-Token"

// RequireOpsToken protects operator-only endpoints such as verification
// decisions. The token comes from OPS_API_TOKEN; when unset the endpoints
// are disabled entirely.
func RequireOpsToken() fiber.Handler {
	return func(c *fiber.Ctx) error {
		expected := env.GetEnv("OPS_API_TOKEN", "")
		if expected == "" {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "not_found",
				"message": "resource not found",
			})
		}

		provided := c.Get(opsTokenHeader)
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "invalid operator token",
			})
		}

		return c.Next()
	}
}
