// Package quota enforces metered feature limits against persistent counters.
// The entitlements package answers "would this be allowed"; this service
// additionally spends a unit, atomically, so two racing consumers of the last
// unit resolve to one success.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/foundersbridge/foundersbridge/app/models"
	"github.com/foundersbridge/foundersbridge/app/repository"
	"github.com/foundersbridge/foundersbridge/internal/pkg/billing"
	"github.com/foundersbridge/foundersbridge/internal/pkg/entitlements"
	"github.com/foundersbridge/foundersbridge/internal/pkg/verdict"
)

// Service evaluates and consumes metered feature quota. It satisfies the
// engagement machine's Quota contract.
type Service struct {
	billing *billing.Service
	usage   repository.UsageRepository
	orgs    repository.OrganizationRepository
}

// NewService wires the quota service.
func NewService(billingService *billing.Service, usage repository.UsageRepository, orgs repository.OrganizationRepository) *Service {
	return &Service{
		billing: billingService,
		usage:   usage,
		orgs:    orgs,
	}
}

// Evaluate answers whether the organization could use the feature right now,
// without consuming anything.
func (s *Service) Evaluate(ctx context.Context, org *models.Organization, key entitlements.FeatureKey, now time.Time) (entitlements.GateResult, error) {
	pc, err := s.billing.ResolvePlanContext(ctx, org, now)
	if err != nil {
		return entitlements.GateResult{}, err
	}
	usage, err := s.usage.ListForPeriod(org.ID, string(key), pc.PeriodStart)
	if err != nil {
		return entitlements.GateResult{}, fmt.Errorf("load feature usage: %w", err)
	}
	return entitlements.EvaluateFeature(key, pc.CurrentPlan, pc.Plans, usage, now), nil
}

// Consume spends one unit of the feature if the gate allows it. The returned
// result has Allowed set only when a unit was actually consumed (or the
// feature is unlimited); its counters reflect the state after the consume.
func (s *Service) Consume(ctx context.Context, org *models.Organization, key entitlements.FeatureKey, now time.Time) (entitlements.GateResult, error) {
	pc, err := s.billing.ResolvePlanContext(ctx, org, now)
	if err != nil {
		return entitlements.GateResult{}, err
	}
	usage, err := s.usage.ListForPeriod(org.ID, string(key), pc.PeriodStart)
	if err != nil {
		return entitlements.GateResult{}, fmt.Errorf("load feature usage: %w", err)
	}

	res := entitlements.EvaluateFeature(key, pc.CurrentPlan, pc.Plans, usage, now)
	if !res.Allowed {
		return res, nil
	}

	if res.Unlimited {
		// Counting is reporting-only here, never a gate.
		if err := s.usage.Increment(org.ID, string(key), pc.PeriodStart, pc.PeriodEnd); err != nil {
			return res, fmt.Errorf("record feature usage: %w", err)
		}
		res.Used++
		return res, nil
	}

	if res.Limit == nil {
		return res, verdict.ConfigErr("limited gate result for %q carries no limit", key)
	}
	ok, err := s.usage.TryConsume(org.ID, string(key), pc.PeriodStart, pc.PeriodEnd, *res.Limit)
	if err != nil {
		return res, fmt.Errorf("consume feature quota: %w", err)
	}
	if !ok {
		// Lost the race for the last unit; report as exhausted.
		res.Allowed = false
		res.Used = *res.Limit
		zero := 0
		res.Remaining = &zero
		res.Message = entitlements.ExhaustedMessage(key, pc.CurrentPlan, pc.Plans)
		return res, nil
	}

	res.Used++
	if res.Remaining != nil {
		remaining := *res.Remaining - 1
		res.Remaining = &remaining
	}
	return res, nil
}

// Release refunds one previously consumed unit, used when the action that
// consumed it could not complete.
func (s *Service) Release(ctx context.Context, org *models.Organization, key entitlements.FeatureKey, now time.Time) error {
	pc, err := s.billing.ResolvePlanContext(ctx, org, now)
	if err != nil {
		return err
	}
	return s.usage.Release(org.ID, string(key), pc.PeriodStart)
}

// ConsumeProposalResponse spends one advisor proposal response for the
// organization.
func (s *Service) ConsumeProposalResponse(ctx context.Context, advisorOrgID uint, now time.Time) (entitlements.GateResult, error) {
	org, err := s.orgs.GetByID(advisorOrgID)
	if err != nil {
		return entitlements.GateResult{}, fmt.Errorf("load advisor organization: %w", err)
	}
	return s.Consume(ctx, org, entitlements.FeatureAdvisorProposalResponses, now)
}

// ReleaseProposalResponse refunds one advisor proposal response.
func (s *Service) ReleaseProposalResponse(ctx context.Context, advisorOrgID uint, now time.Time) error {
	org, err := s.orgs.GetByID(advisorOrgID)
	if err != nil {
		return fmt.Errorf("load advisor organization: %w", err)
	}
	return s.Release(ctx, org, entitlements.FeatureAdvisorProposalResponses, now)
}
