package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/foundersbridge/foundersbridge/internal/pkg/orgcontext"
)

func isLoggedIn(c *fiber.Ctx) bool {
	if b, ok := c.Locals(orgcontext.KeyFromProtected).(bool); ok {
		return b
	}
	return false
}

// RequireAuth ensures a logged-in session and returns JSON 401 otherwise.
func RequireAuth(c *fiber.Ctx) error {
	if !isLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	return c.Next()
}

// RequireOrganization ensures the session acts on behalf of an organization.
// A logged-in user without a primary membership gets a 403 with a hint.
func RequireOrganization(c *fiber.Ctx) error {
	if !isLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	if !orgcontext.HasOrganization(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": "create or join an organization first",
		})
	}
	return c.Next()
}
