package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/foundersbridge/foundersbridge/app/models"
	"github.com/foundersbridge/foundersbridge/internal/pkg/verdict"
)

// Service resolves effective plans from subscription snapshots and keeps the
// snapshots in sync with the payment provider. It is the only place that
// interprets the provider's status string; the feature gate never sees it.
type Service struct {
	repo Repository
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// PlanContext is everything a feature gate evaluation needs: the effective
// current plan (nil when the organization has no entitling subscription), the
// segment catalog ordered by tier, and the active usage period.
type PlanContext struct {
	CurrentPlan  *models.BillingPlan
	Plans        []models.BillingPlan
	Subscription *models.Subscription
	PeriodStart  time.Time
	PeriodEnd    time.Time
}

// ResolvePlanContext loads the plan catalog for the organization's segment
// and decides which plan currently applies. A subscription in a non-entitling
// status (past_due, canceled, paused, incomplete) is treated as absent, so
// gates fall back to the lowest-tier plan's limits.
func (s *Service) ResolvePlanContext(ctx context.Context, org *models.Organization, now time.Time) (*PlanContext, error) {
	_ = ctx
	if org == nil {
		return nil, verdict.ConfigErr("plan context requested without organization")
	}

	plans, err := s.repo.ListPlansBySegment(org.Type)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, verdict.ConfigErr("no billing plans cataloged for segment %q", org.Type)
	}

	pc := &PlanContext{Plans: plans}

	sub, err := s.repo.GetSubscriptionByOrg(org.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		sub = nil
	}

	if sub != nil && isEntitlingStatus(sub.Status) {
		pc.CurrentPlan = findPlan(sub.PlanCode, plans)
		pc.Subscription = sub
	}
	pc.PeriodStart, pc.PeriodEnd = currentPeriod(pc.Subscription, now)
	return pc, nil
}

// SyncSubscription upserts provider subscription data into the org snapshot.
// Downgrades between cataloged plans are accepted as-is; the provider is the
// source of truth for the paid plan.
func (s *Service) SyncSubscription(ctx context.Context, in NormalizedSubscription) (*models.Subscription, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if in.OrgID == 0 || provider == "" || strings.TrimSpace(in.ProviderSubscriptionID) == "" {
		return nil, errors.New("org_id, provider and provider_subscription_id are required")
	}

	status := normalizeStatus(in.Status)
	if status == "" {
		status = models.SubscriptionStatusActive
	}

	sub := &models.Subscription{
		OrgID:                  in.OrgID,
		PlanCode:               strings.TrimSpace(in.PlanCode),
		Provider:               provider,
		ProviderSubscriptionID: strings.TrimSpace(in.ProviderSubscriptionID),
		Status:                 status,
		BillingInterval:        normalizeInterval(in.BillingInterval),
		CurrentPeriodStart:     in.CurrentPeriodStart,
		CurrentPeriodEnd:       in.CurrentPeriodEnd,
		CancelAtPeriodEnd:      in.CancelAtPeriodEnd,
	}
	if err := s.repo.UpsertSubscription(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// BestPlanForSegment returns the highest-tier cataloged plan matching any of
// the provider plan codes, used when a provider event carries several price
// references.
func (s *Service) BestPlanForSegment(ctx context.Context, segment string, planCodes []string) (*models.BillingPlan, error) {
	_ = ctx
	plans, err := s.repo.ListPlansBySegment(segment)
	if err != nil {
		return nil, err
	}

	var best *models.BillingPlan
	seen := make(map[string]struct{}, len(planCodes))
	for _, raw := range planCodes {
		code := strings.TrimSpace(raw)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}

		if p := findPlan(code, plans); p != nil {
			if best == nil || planRank(p.PlanCode, plans) > planRank(best.PlanCode, plans) {
				best = p
			}
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return best, nil
}

// RecordWebhookEvent persists webhook payloads idempotently. The bool reports
// whether the event was newly created; replays return the stored row.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.BillingWebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.BillingWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}
