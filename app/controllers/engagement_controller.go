package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/foundersbridge/foundersbridge/app/models"
	"github.com/foundersbridge/foundersbridge/app/repository"
	"github.com/foundersbridge/foundersbridge/internal/pkg/engagement"
	"github.com/foundersbridge/foundersbridge/internal/pkg/entitlements"
	"github.com/foundersbridge/foundersbridge/internal/pkg/env"
	"github.com/foundersbridge/foundersbridge/internal/pkg/quota"
	"github.com/foundersbridge/foundersbridge/internal/pkg/security"
	"github.com/foundersbridge/foundersbridge/internal/pkg/verdict"
)

var engagementMachine *engagement.Machine

// InitializeEngagementController wires the engagement machine. Called once
// during router setup.
func InitializeEngagementController(m *engagement.Machine, q *quota.Service) {
	engagementMachine = m
	quotaService = q
}

type createEngagementRequest struct {
	AdvisorOrgID uint   `json:"advisor_org_id"`
	Message      string `json:"message"`
}

const defaultListLimit = 50

// HandleEngagementCreate opens a request toward an advisor organization.
// Sending consumes one consultant-request unit from the startup's plan.
func HandleEngagementCreate(c *fiber.Ctx) error {
	actor, startupOrg, err := actingOrg(c)
	if err != nil {
		return respondError(c, err)
	}

	var req createEngagementRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.AdvisorOrgID == 0 {
		return badRequest(c, "advisor_org_id is required")
	}
	message := strings.TrimSpace(req.Message)

	repos := repository.GetGlobalRepositories()
	advisorOrg, err := repos.Organization.GetByID(req.AdvisorOrgID)
	if err != nil {
		return respondError(c, err)
	}

	now := time.Now()
	gate, err := quotaService.Consume(c.Context(), startupOrg, entitlements.FeatureConsultantRequests, now)
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

	request, err := engagementMachine.Create(c.Context(), actor, startupOrg, advisorOrg, message)
	if err != nil {
		// Refund the consumed unit; the send never happened.
		if releaseErr := quotaService.Release(c.Context(), startupOrg, entitlements.FeatureConsultantRequests, now); releaseErr != nil {
			log.Warnf("[Engagement] Failed to release consultant request unit for org %d: %v", startupOrg.ID, releaseErr)
		}
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"request": request,
		"gate":    gate,
	})
}

// HandleEngagementGet returns one request. Only the two involved
// organizations can read it.
func HandleEngagementGet(c *fiber.Ctx) error {
	_, org, err := actingOrg(c)
	if err != nil {
		return respondError(c, err)
	}

	request, err := loadVisibleRequest(c, org)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(request)
}

// HandleEngagementCancel cancels a sent request. Sender side only.
func HandleEngagementCancel(c *fiber.Ctx) error {
	actor, org, err := actingOrg(c)
	if err != nil {
		return respondError(c, err)
	}

	request, err := loadVisibleRequest(c, org)
	if err != nil {
		return respondError(c, err)
	}

	if err := engagementMachine.Cancel(c.Context(), request, actor); err != nil {
		return respondError(c, err)
	}
	return c.JSON(request)
}

// HandleEngagementAccept accepts a sent request: verification gate, proposal
// quota and prep room provisioning all happen inside the machine.
func HandleEngagementAccept(c *fiber.Ctx) error {
	actor, org, err := actingOrg(c)
	if err != nil {
		return respondError(c, err)
	}

	request, err := loadVisibleRequest(c, org)
	if err != nil {
		return respondError(c, err)
	}

	if err := engagementMachine.Accept(c.Context(), request, actor, org); err != nil {
		return respondError(c, err)
	}
	return c.JSON(request)
}

// HandleEngagementReject rejects a sent request. No quota is consumed.
func HandleEngagementReject(c *fiber.Ctx) error {
	actor, org, err := actingOrg(c)
	if err != nil {
		return respondError(c, err)
	}

	request, err := loadVisibleRequest(c, org)
	if err != nil {
		return respondError(c, err)
	}

	if err := engagementMachine.Reject(c.Context(), request, actor, org); err != nil {
		return respondError(c, err)
	}
	return c.JSON(request)
}

// HandleEngagementList returns the acting organization's requests, sent or
// received depending on its type.
func HandleEngagementList(c *fiber.Ctx) error {
	_, org, err := actingOrg(c)
	if err != nil {
		return respondError(c, err)
	}

	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", defaultListLimit)
	if limit <= 0 || limit > 200 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	repos := repository.GetGlobalRepositories()
	var requests []models.EngagementRequest
	switch org.Type {
	case models.OrgTypeAdvisor:
		requests, err = repos.Engagement.ListByAdvisorOrg(org.ID, offset, limit)
	default:
		requests, err = repos.Engagement.ListByStartupOrg(org.ID, offset, limit)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"requests": requests})
}

// HandleEngagementRoomToken issues a signed access token for the prep room of
// an accepted request. Either involved organization can fetch one; the
// collaboration backend verifies it with the shared secret.
func HandleEngagementRoomToken(c *fiber.Ctx) error {
	_, org, err := actingOrg(c)
	if err != nil {
		return respondError(c, err)
	}

	request, err := loadVisibleRequest(c, org)
	if err != nil {
		return respondError(c, err)
	}
	if request.Status != models.EngagementStatusAccepted || request.PrepRoomID == nil {
		return respondError(c, verdict.Deny("request has no prep room"))
	}

	secret := env.GetEnv("PREP_ROOM_TOKEN_SECRET", "")
	if secret == "" {
		return respondError(c, verdict.ConfigErr("prep room token secret is not configured"))
	}

	token, err := security.GenerateRoomToken(org.ID, *request.PrepRoomID, roomTokenTTL, secret)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"room_id":    *request.PrepRoomID,
		"token":      token,
		"expires_in": int(roomTokenTTL.Seconds()),
	})
}

const roomTokenTTL = time.Hour

// loadVisibleRequest loads a request by public id and checks the acting
// organization is one of its two sides.
func loadVisibleRequest(c *fiber.Ctx, org *models.Organization) (*models.EngagementRequest, error) {
	publicID := strings.TrimSpace(c.Params("id"))
	request, err := repository.GetGlobalRepositories().Engagement.GetByPublicID(publicID)
	if err != nil {
		return nil, err
	}
	if request.StartupOrgID != org.ID && request.AdvisorOrgID != org.ID {
		// Hide existence from third parties.
		return nil, gorm.ErrRecordNotFound
	}
	return request, nil
}
