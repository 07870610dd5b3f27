package billing

import (
	"strings"
	"time"

	"github.com/foundersbridge/foundersbridge/app/models"
)

func normalizeInterval(interval string) string {
	switch strings.ToLower(strings.TrimSpace(interval)) {
	case "monthly", "month":
		return models.BillingIntervalMonthly
	case "annual", "year", "yearly":
		return models.BillingIntervalAnnual
	default:
		return models.BillingIntervalUnknown
	}
}

func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// isEntitlingStatus reports whether a subscription status grants its plan's
// limits. past_due, canceled, incomplete and paused all fall back to the
// segment's lowest tier.
func isEntitlingStatus(status string) bool {
	switch normalizeStatus(status) {
	case models.SubscriptionStatusActive, models.SubscriptionStatusTrialing:
		return true
	default:
		return false
	}
}

// planRank orders plans within a segment; unknown codes rank below every
// cataloged plan.
func planRank(planCode string, plans []models.BillingPlan) int {
	for i := range plans {
		if plans[i].PlanCode == planCode {
			return plans[i].Tier
		}
	}
	return -1
}

func findPlan(planCode string, plans []models.BillingPlan) *models.BillingPlan {
	for i := range plans {
		if plans[i].PlanCode == planCode {
			return &plans[i]
		}
	}
	return nil
}

// currentPeriod resolves the usage period for a subscription. Without
// provider period bounds it falls back to the calendar month containing now,
// which is also the freemium period.
func currentPeriod(sub *models.Subscription, now time.Time) (time.Time, time.Time) {
	if sub != nil && sub.CurrentPeriodStart != nil && sub.CurrentPeriodEnd != nil && sub.CurrentPeriodEnd.After(*sub.CurrentPeriodStart) {
		return *sub.CurrentPeriodStart, *sub.CurrentPeriodEnd
	}
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 1, 0)
}
