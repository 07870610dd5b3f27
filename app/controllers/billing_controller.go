package controllers

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/foundersbridge/foundersbridge/internal/pkg/billing"
	"github.com/foundersbridge/foundersbridge/internal/pkg/entitlements"
	"github.com/foundersbridge/foundersbridge/internal/pkg/env"
	"github.com/foundersbridge/foundersbridge/internal/pkg/quota"
)

var billingService *billing.Service

// InitializeBillingController wires the billing service. Called once during
// router setup.
func InitializeBillingController(b *billing.Service, q *quota.Service) {
	billingService = b
	quotaService = q
}

// HandleBillingPlans returns the plan catalog for the acting organization's
// segment, tier ascending, with the effective current plan marked.
func HandleBillingPlans(c *fiber.Ctx) error {
	_, org, err := actingOrg(c)
	if err != nil {
		return respondError(c, err)
	}

	pc, err := billingService.ResolvePlanContext(c.Context(), org, time.Now())
	if err != nil {
		return respondError(c, err)
	}

	currentCode := ""
	if pc.CurrentPlan != nil {
		currentCode = pc.CurrentPlan.PlanCode
	}
	return c.JSON(fiber.Map{
		"plans":             pc.Plans,
		"current_plan_code": currentCode,
		"period_start":      pc.PeriodStart,
		"period_end":        pc.PeriodEnd,
	})
}

// HandleBillingEntitlements evaluates every metered feature gate for the
// acting organization without consuming anything.
func HandleBillingEntitlements(c *fiber.Ctx) error {
	_, org, err := actingOrg(c)
	if err != nil {
		return respondError(c, err)
	}

	now := time.Now()
	features := []entitlements.FeatureKey{
		entitlements.FeatureConsultantRequests,
		entitlements.FeatureAdvisorProposalResponses,
		entitlements.FeatureInvestorFullProfileViews,
	}
	results := make([]entitlements.GateResult, 0, len(features))
	for _, key := range features {
		gate, err := quotaService.Evaluate(c.Context(), org, key, now)
		if err != nil {
			return respondError(c, err)
		}
		results = append(results, gate)
	}
	return c.JSON(fiber.Map{"entitlements": results})
}

// webhookPayload is the normalized event shape the payment provider posts.
type webhookPayload struct {
	EventID      string `json:"event_id"`
	EventType    string `json:"event_type"`
	Subscription struct {
		OrgID              uint       `json:"org_id"`
		PlanCode           string     `json:"plan_code"`
		SubscriptionID     string     `json:"subscription_id"`
		Status             string     `json:"status"`
		BillingInterval    string     `json:"billing_interval"`
		CurrentPeriodStart *time.Time `json:"current_period_start"`
		CurrentPeriodEnd   *time.Time `json:"current_period_end"`
		CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
	} `json:"subscription"`
}

// HandleBillingWebhook ingests payment provider events: verify the signature,
// record the event idempotently, then sync the subscription snapshot. Replays
// are acknowledged without reprocessing.
func HandleBillingWebhook(c *fiber.Ctx) error {
	provider := c.Params("provider")
	body := c.Body()

	secret := env.GetEnv("BILLING_WEBHOOK_SECRET", "")
	signatureValid := billing.VerifyWebhookSignature(body, c.Get("X-Webhook-Signature"), secret)
	if !signatureValid {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "invalid webhook signature",
		})
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return badRequest(c, "invalid webhook payload")
	}

	created, event, err := billingService.RecordWebhookEvent(c.Context(), billing.WebhookEventInput{
		Provider:        provider,
		ProviderEventID: payload.EventID,
		EventType:       payload.EventType,
		PayloadJSON:     string(body),
		SignatureValid:  signatureValid,
	})
	if err != nil {
		return respondError(c, err)
	}
	if !created {
		// Replay; the original delivery already did the work.
		return c.JSON(fiber.Map{"status": "duplicate"})
	}

	_, syncErr := billingService.SyncSubscription(c.Context(), billing.NormalizedSubscription{
		OrgID:                  payload.Subscription.OrgID,
		PlanCode:               payload.Subscription.PlanCode,
		Provider:               provider,
		ProviderSubscriptionID: payload.Subscription.SubscriptionID,
		Status:                 payload.Subscription.Status,
		BillingInterval:        payload.Subscription.BillingInterval,
		CurrentPeriodStart:     payload.Subscription.CurrentPeriodStart,
		CurrentPeriodEnd:       payload.Subscription.CurrentPeriodEnd,
		CancelAtPeriodEnd:      payload.Subscription.CancelAtPeriodEnd,
	})
	if markErr := billingService.MarkWebhookProcessed(c.Context(), event.ID, syncErr); markErr != nil {
		log.Errorf("[Billing] Failed to mark webhook %d processed: %v", event.ID, markErr)
	}
	if syncErr != nil {
		log.Errorf("[Billing] Webhook %s/%s sync failed: %v", provider, payload.EventID, syncErr)
		return respondError(c, syncErr)
	}

	return c.JSON(fiber.Map{"status": "processed"})
}
