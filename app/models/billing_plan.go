package models

import "time"

// PlanFeature is a single plan entitlement. A nil Limit means unlimited use;
// a zero Limit means the feature exists on the plan but is never allowed.
type PlanFeature struct {
	Key   string `json:"key"`
	Limit *int   `json:"limit"`
}

// BillingPlan is immutable catalog data, segmented by organization type.
// Tier is an ordinal within a segment; lower means cheaper. Pricing fields are
// nil when a billing interval is not offered for the plan.
type BillingPlan struct {
	ID                uint          `gorm:"primaryKey" json:"id"`
	PlanCode          string        `gorm:"type:varchar(50);not null;uniqueIndex" json:"plan_code"`
	Segment           string        `gorm:"type:varchar(20);not null;index:idx_billing_plans_segment_tier,priority:1" json:"segment"`
	Tier              int           `gorm:"not null;default:0;index:idx_billing_plans_segment_tier,priority:2" json:"tier"`
	DisplayName       string        `gorm:"type:varchar(100);not null" json:"display_name"`
	MonthlyPriceCents *int64        `gorm:"default:null" json:"monthly_price_cents,omitempty"`
	AnnualPriceCents  *int64        `gorm:"default:null" json:"annual_price_cents,omitempty"`
	Currency          string        `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	Features          []PlanFeature `gorm:"serializer:json;type:text" json:"features"`
	CreatedAt         time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

// FeatureLimit looks up the plan's limit for a feature key. The second return
// reports whether the plan carries the feature at all.
func (p *BillingPlan) FeatureLimit(key string) (*int, bool) {
	for _, f := range p.Features {
		if f.Key == key {
			return f.Limit, true
		}
	}
	return nil, false
}
