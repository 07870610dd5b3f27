package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/foundersbridge/foundersbridge/app/models"
	"github.com/foundersbridge/foundersbridge/app/repository"
	"github.com/foundersbridge/foundersbridge/internal/pkg/orgcontext"
	"github.com/foundersbridge/foundersbridge/internal/pkg/verdict"
)

// actingOrg resolves the membership and organization the session acts for.
// Controllers behind RequireOrganization can rely on both being present.
func actingOrg(c *fiber.Ctx) (*models.Membership, *models.Organization, error) {
	ctx := orgcontext.GetOrgContext(c)
	if !ctx.IsLoggedIn || ctx.OrgID == 0 {
		return nil, nil, verdict.Deny("no acting organization for this session")
	}

	repos := repository.GetGlobalRepositories()
	membership, err := repos.Membership.GetByUserAndOrg(ctx.UserID, ctx.OrgID)
	if err != nil {
		return nil, nil, err
	}
	org, err := repos.Organization.GetByID(ctx.OrgID)
	if err != nil {
		return nil, nil, err
	}
	return membership, org, nil
}

// respondError maps the verdict taxonomy onto HTTP statuses. Denials are the
// expected outcome of a rule check and carry their user-facing message;
// conflicts mean a racing transition won; config errors are server defects.
func respondError(c *fiber.Ctx, err error) error {
	if msg, ok := verdict.AsDenial(err); ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "denied",
			"message": msg,
		})
	}
	if errors.Is(err, verdict.ErrConflict) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "conflict",
			"message": verdict.ErrConflict.Error(),
		})
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "not_found",
			"message": "resource not found",
		})
	}
	if errors.Is(err, verdict.ErrConfig) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_server_error",
			"message": "rule configuration error",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "internal_server_error",
		"message": "unexpected error",
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   "bad_request",
		"message": message,
	})
}

// GetClientIP determines the actual client IP address considering proxies.
// Returns both IPv4 and IPv6 addresses if available.
func GetClientIP(c *fiber.Ctx) (string, string) {
	ipv4 := ""
	ipv6 := ""

	// 1. Check for Cloudflare header
	cfIP := c.Get("CF-Connecting-IP")
	if cfIP != "" {
		if strings.Contains(cfIP, ":") {
			ipv6 = cfIP
		} else {
			ipv4 = cfIP
		}
		return ipv4, ipv6
	}

	// 2. Check for X-Forwarded-For header (standard proxy header)
	xff := c.Get("X-Forwarded-For")
	if xff != "" {
		xffList := strings.Split(xff, ",")
		clientIP := strings.TrimSpace(xffList[0])
		if strings.Contains(clientIP, ":") {
			ipv6 = clientIP
		} else {
			ipv4 = clientIP
		}
		return ipv4, ipv6
	}

	// 3. If no proxy headers were found, use the normal IP address
	ipAddr := c.IP()
	if strings.Contains(ipAddr, ":") {
		// For ::ffff: IPv4-mapped-IPv6 addresses
		if strings.Contains(ipAddr, ".") && strings.HasPrefix(ipAddr, "::ffff:") {
			ipv4 = strings.TrimPrefix(ipAddr, "::ffff:")
		} else {
			ipv6 = ipAddr
		}
	} else {
		ipv4 = ipAddr
	}

	return ipv4, ipv6
}
