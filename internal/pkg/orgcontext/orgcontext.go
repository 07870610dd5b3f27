package orgcontext

import "github.com/gofiber/fiber/v2"

// OrgContext represents the acting user and their primary organization for a
// request
type OrgContext struct {
	UserID             uint   `json:"user_id"`
	UserName           string `json:"user_name"`
	IsLoggedIn         bool   `json:"is_logged_in"`
	OrgID              uint   `json:"org_id"`
	OrgType            string `json:"org_type"`
	VerificationStatus string `json:"verification_status"`
	MemberRole         string `json:"member_role"`
}

// GetOrgContext retrieves the org context from fiber context
// Returns a default anonymous context if none is set
func GetOrgContext(c *fiber.Ctx) OrgContext {
	if ctx := c.Locals("ORG_CONTEXT"); ctx != nil {
		return ctx.(OrgContext)
	}
	return OrgContext{IsLoggedIn: false}
}

// IsLoggedIn checks if the current user is logged in
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetOrgContext(c).IsLoggedIn
}

// HasOrganization reports whether the request acts on behalf of an organization
func HasOrganization(c *fiber.Ctx) bool {
	return GetOrgContext(c).OrgID != 0
}

// GetUserID returns the current user's ID, or 0 if not logged in
func GetUserID(c *fiber.Ctx) uint {
	return GetOrgContext(c).UserID
}

// GetOrgID returns the acting organization's ID, or 0 if none is set
func GetOrgID(c *fiber.Ctx) uint {
	return GetOrgContext(c).OrgID
}
