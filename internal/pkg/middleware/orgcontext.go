package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/foundersbridge/foundersbridge/app/repository"
	"github.com/foundersbridge/foundersbridge/internal/pkg/orgcontext"
	"github.com/foundersbridge/foundersbridge/internal/pkg/session"
)

// OrgContextMiddleware sets up the complete acting-organization context for
// every request. This centralizes session handling and eliminates code
// duplication in the controllers.
func OrgContextMiddleware(c *fiber.Ctx) error {
	anonymous := func() error {
		c.Locals("ORG_CONTEXT", orgcontext.OrgContext{IsLoggedIn: false})
		c.Locals(orgcontext.KeyFromProtected, false)
		return c.Next()
	}

	// Get session with error handling
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return anonymous()
	}

	userID := sess.Get(orgcontext.KeyUserID)
	if userID == nil {
		return anonymous()
	}

	uid, ok := userID.(uint)
	if !ok {
		return anonymous()
	}

	ctx := orgcontext.OrgContext{
		UserID:     uid,
		UserName:   session.GetSessionValue(c, orgcontext.KeyUserName),
		IsLoggedIn: true,
	}

	// Resolve the primary organization; a user without one is still logged in
	// and can create an organization.
	repos := repository.GetGlobalRepositories()
	membership, err := repos.Membership.GetPrimaryByUser(uid)
	if err == nil {
		ctx.OrgID = membership.OrgID
		ctx.MemberRole = membership.Role
		if org, orgErr := repos.Organization.GetByID(membership.OrgID); orgErr == nil {
			ctx.OrgType = org.Type
			ctx.VerificationStatus = org.VerificationStatus
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return anonymous()
	}

	c.Locals("ORG_CONTEXT", ctx)
	c.Locals(orgcontext.KeyFromProtected, true)
	c.Locals(orgcontext.KeyUserID, uid)
	c.Locals(orgcontext.KeyOrgID, ctx.OrgID)
	c.Locals(orgcontext.KeyOrgType, ctx.OrgType)

	return c.Next()
}
