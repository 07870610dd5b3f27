// Package entitlements evaluates metered plan features: a numeric per-period
// cap or unlimited use. The evaluator is a pure counter comparison; it does
// not interpret subscription status (the billing service resolves that to a
// plan, or to no plan, before calling in) and it never errors for an ordinary
// denial. Missing data degrades to blocked because under-granting is cheaper
// than over-granting.
package entitlements

import (
	"fmt"
	"time"

	"github.com/foundersbridge/foundersbridge/app/models"
)

// FeatureKey identifies a metered plan feature. The set is closed; gates are
// exposed through the named evaluators below, not by passing raw strings.
type FeatureKey string

const (
	// FeatureConsultantRequests caps how many engagement requests a startup
	// can send per billing period.
	FeatureConsultantRequests FeatureKey = "consultant_requests"
	// FeatureAdvisorProposalResponses caps how many proposals an advisor can
	// accept per billing period. Rejections do not consume it.
	FeatureAdvisorProposalResponses FeatureKey = "advisor_proposal_responses"
	// FeatureInvestorFullProfileViews caps full startup profile opens on the
	// investor side.
	FeatureInvestorFullProfileViews FeatureKey = "investor_full_profile_views"
)

// GateResult is the verdict for one feature check.
// Invariant: Allowed == Unlimited || (Remaining != nil && *Remaining > 0).
type GateResult struct {
	Feature   FeatureKey `json:"feature"`
	Allowed   bool       `json:"allowed"`
	Unlimited bool       `json:"unlimited"`
	Limit     *int       `json:"limit"`
	Remaining *int       `json:"remaining"`
	Used      int        `json:"used"`
	Message   string     `json:"message,omitempty"`
}

// EvaluateFeature resolves the feature's limit on the current plan and
// compares it against usage in the period containing now.
//
// currentPlan may be nil (no subscription, or a non-entitling one); the first
// plan in plans then serves as the freemium default. plans must be ordered by
// tier ascending, which is how the plan repository returns a segment.
func EvaluateFeature(key FeatureKey, currentPlan *models.BillingPlan, plans []models.BillingPlan, usage []models.FeatureUsage, now time.Time) GateResult {
	plan := currentPlan
	if plan == nil && len(plans) > 0 {
		plan = &plans[0]
	}

	used := sumUsed(key, usage, now)

	if plan == nil {
		return GateResult{
			Feature: key,
			Used:    used,
			Message: "no plan is configured for your organization",
		}
	}

	limit, ok := plan.FeatureLimit(string(key))
	if !ok {
		return GateResult{
			Feature: key,
			Used:    used,
			Message: upgradeMessage(key, plan),
		}
	}

	if limit == nil {
		return GateResult{
			Feature:   key,
			Allowed:   true,
			Unlimited: true,
			Used:      used,
		}
	}

	remaining := *limit - used
	if remaining < 0 {
		remaining = 0
	}

	result := GateResult{
		Feature:   key,
		Allowed:   remaining > 0,
		Limit:     limit,
		Remaining: &remaining,
		Used:      used,
	}
	if !result.Allowed {
		result.Message = upgradeMessage(key, plan)
	}
	return result
}

// EvaluateConsultantRequests is the startup-side gate for creating
// engagement requests.
func EvaluateConsultantRequests(currentPlan *models.BillingPlan, plans []models.BillingPlan, usage []models.FeatureUsage, now time.Time) GateResult {
	return EvaluateFeature(FeatureConsultantRequests, currentPlan, plans, usage, now)
}

// EvaluateAdvisorProposalResponses is the advisor-side gate for accepting
// proposals.
func EvaluateAdvisorProposalResponses(currentPlan *models.BillingPlan, plans []models.BillingPlan, usage []models.FeatureUsage, now time.Time) GateResult {
	return EvaluateFeature(FeatureAdvisorProposalResponses, currentPlan, plans, usage, now)
}

// EvaluateInvestorFullProfileViews is the investor-side gate for opening full
// startup profiles.
func EvaluateInvestorFullProfileViews(currentPlan *models.BillingPlan, plans []models.BillingPlan, usage []models.FeatureUsage, now time.Time) GateResult {
	return EvaluateFeature(FeatureInvestorFullProfileViews, currentPlan, plans, usage, now)
}

// ExhaustedMessage is the denial message for a feature whose cap is spent,
// resolving the effective plan the same way EvaluateFeature does. Consumers
// that discover exhaustion after their own evaluation (a lost conditional
// increment) use it to report the denial consistently.
func ExhaustedMessage(key FeatureKey, currentPlan *models.BillingPlan, plans []models.BillingPlan) string {
	plan := currentPlan
	if plan == nil && len(plans) > 0 {
		plan = &plans[0]
	}
	return upgradeMessage(key, plan)
}

func sumUsed(key FeatureKey, usage []models.FeatureUsage, now time.Time) int {
	total := 0
	for i := range usage {
		if usage[i].FeatureKey != string(key) {
			continue
		}
		if !usage[i].CoversInstant(now) {
			continue
		}
		total += usage[i].Used
	}
	return total
}

func upgradeMessage(key FeatureKey, plan *models.BillingPlan) string {
	label := featureLabel(key)
	if plan != nil {
		return fmt.Sprintf("You have used all %s included in the %s plan. Upgrade to continue.", label, plan.DisplayName)
	}
	return fmt.Sprintf("You have used all %s included in your plan. Upgrade to continue.", label)
}

func featureLabel(key FeatureKey) string {
	switch key {
	case FeatureConsultantRequests:
		return "consultant requests"
	case FeatureAdvisorProposalResponses:
		return "proposal responses"
	case FeatureInvestorFullProfileViews:
		return "full profile views"
	default:
		return string(key)
	}
}
