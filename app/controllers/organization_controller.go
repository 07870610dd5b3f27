package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/foundersbridge/foundersbridge/app/models"
	"github.com/foundersbridge/foundersbridge/app/repository"
	"github.com/foundersbridge/foundersbridge/internal/pkg/entitlements"
	"github.com/foundersbridge/foundersbridge/internal/pkg/gating"
	"github.com/foundersbridge/foundersbridge/internal/pkg/metrics/counter"
	"github.com/foundersbridge/foundersbridge/internal/pkg/orgcontext"
	"github.com/foundersbridge/foundersbridge/internal/pkg/quota"
)

var quotaService *quota.Service

// InitializeOrganizationController wires the quota service used by profile
// view gating. Called once during router setup.
func InitializeOrganizationController(q *quota.Service) {
	quotaService = q
}

type createOrganizationRequest struct {
	Type         string   `json:"type"`
	Name         string   `json:"name"`
	Location     string   `json:"location"`
	LogoURL      string   `json:"logo_url"`
	IndustryTags []string `json:"industry_tags"`
}

type updateOrganizationRequest struct {
	Name         *string  `json:"name"`
	Location     *string  `json:"location"`
	LogoURL      *string  `json:"logo_url"`
	IndustryTags []string `json:"industry_tags"`
}

// applyOrganizationUpdate merges present fields onto the organization. Absent
// fields keep their stored value; an explicit empty string clears the field.
func applyOrganizationUpdate(org *models.Organization, req updateOrganizationRequest) {
	if req.Name != nil {
		org.Name = strings.TrimSpace(*req.Name)
	}
	if req.Location != nil {
		org.Location = strings.TrimSpace(*req.Location)
	}
	if req.LogoURL != nil {
		org.LogoURL = strings.TrimSpace(*req.LogoURL)
	}
	if req.IndustryTags != nil {
		org.IndustryTags = req.IndustryTags
	}
}

// HandleOrganizationCreate creates an organization with the caller as owner.
// The organization starts unverified; verification is a separate review step.
func HandleOrganizationCreate(c *fiber.Ctx) error {
	ctx := orgcontext.GetOrgContext(c)

	var req createOrganizationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	org := &models.Organization{
		Type:               strings.ToLower(strings.TrimSpace(req.Type)),
		VerificationStatus: models.VerificationUnverified,
		Name:               strings.TrimSpace(req.Name),
		Location:           strings.TrimSpace(req.Location),
		LogoURL:            strings.TrimSpace(req.LogoURL),
		IndustryTags:       req.IndustryTags,
	}
	if err := org.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	repos := repository.GetGlobalRepositories()
	if err := repos.Organization.Create(org); err != nil {
		return respondError(c, err)
	}

	membership := &models.Membership{
		UserID:    ctx.UserID,
		OrgID:     org.ID,
		Role:      models.MemberRoleOwner,
		IsPrimary: true,
		JoinedAt:  time.Now(),
	}
	if err := repos.Membership.Create(membership); err != nil {
		return respondError(c, err)
	}

	log.Infof("[Org] User %d created organization %d (%s)", ctx.UserID, org.ID, org.Type)
	return c.Status(fiber.StatusCreated).JSON(org)
}

// HandleOrganizationMine returns the acting organization with its memberships.
func HandleOrganizationMine(c *fiber.Ctx) error {
	_, org, err := actingOrg(c)
	if err != nil {
		return respondError(c, err)
	}

	members, err := repository.GetGlobalRepositories().Membership.ListByOrg(org.ID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"organization": org,
		"members":      members,
	})
}

// HandleOrganizationUpdate updates identity fields. Owner only; the
// verification status is never writable here.
func HandleOrganizationUpdate(c *fiber.Ctx) error {
	membership, org, err := actingOrg(c)
	if err != nil {
		return respondError(c, err)
	}
	if !membership.IsOwner() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "denied",
			"message": "only the organization owner can update its identity",
		})
	}

	var req updateOrganizationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	applyOrganizationUpdate(org, req)
	if err := org.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	if err := repository.GetGlobalRepositories().Organization.Update(org); err != nil {
		return respondError(c, err)
	}
	return c.JSON(org)
}

// HandleOrganizationCapabilities evaluates every known capability for the
// acting organization.
func HandleOrganizationCapabilities(c *fiber.Ctx) error {
	_, org, err := actingOrg(c)
	if err != nil {
		return respondError(c, err)
	}

	capabilities := gating.Capabilities()
	results := make([]gating.Result, 0, len(capabilities))
	for _, capability := range capabilities {
		results = append(results, gating.EvaluateForOrg(capability, org))
	}
	return c.JSON(fiber.Map{"capabilities": results})
}

// HandleOrganizationProfile opens another organization's full profile. When an
// investor opens a startup profile, a full-profile-view unit is consumed.
func HandleOrganizationProfile(c *fiber.Ctx) error {
	_, viewerOrg, err := actingOrg(c)
	if err != nil {
		return respondError(c, err)
	}

	targetID, err := c.ParamsInt("id")
	if err != nil || targetID <= 0 {
		return badRequest(c, "invalid organization id")
	}

	repos := repository.GetGlobalRepositories()
	target, err := repos.Organization.GetByID(uint(targetID))
	if err != nil {
		return respondError(c, err)
	}

	// Investor views of startup profiles are metered; everything else is free.
	if viewerOrg.Type == models.OrgTypeInvestor && target.Type == models.OrgTypeStartup && viewerOrg.ID != target.ID {
		gate, err := quotaService.Consume(c.Context(), viewerOrg, entitlements.FeatureInvestorFullProfileViews, time.Now())
		if err != nil {
			return respondError(c, err)
		}
		if !gate.Allowed {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "denied",
				"message": gate.Message,
				"gate":    gate,
			})
		}
	}

	if viewerOrg.ID != target.ID {
		if err := counter.AddProfileView(target.ID); err != nil {
			log.Warnf("[Org] Failed to count profile view for org %d: %v", target.ID, err)
		}
	}

	return c.JSON(target)
}

// HandleOrganizationVerify sets the verification status. Review-process only,
// guarded by the ops token middleware.
func HandleOrganizationVerify(c *fiber.Ctx) error {
	targetID, err := c.ParamsInt("id")
	if err != nil || targetID <= 0 {
		return badRequest(c, "invalid organization id")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	switch status {
	case models.VerificationUnverified, models.VerificationPending, models.VerificationApproved, models.VerificationRejected:
	default:
		return badRequest(c, "unknown verification status")
	}

	repos := repository.GetGlobalRepositories()
	if _, err := repos.Organization.GetByID(uint(targetID)); err != nil {
		return respondError(c, err)
	}
	if err := repos.Organization.UpdateVerificationStatus(uint(targetID), status); err != nil {
		return respondError(c, err)
	}

	log.Infof("[Org] Verification status of organization %d set to %s", targetID, status)
	return c.JSON(fiber.Map{"id": targetID, "verification_status": status})
}
