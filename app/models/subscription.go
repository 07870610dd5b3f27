package models

import "time"

const (
	BillingIntervalMonthly = "monthly"
	BillingIntervalAnnual  = "annual"
	BillingIntervalUnknown = "unknown"
)

const (
	SubscriptionStatusActive     = "active"
	SubscriptionStatusTrialing   = "trialing"
	SubscriptionStatusPastDue    = "past_due"
	SubscriptionStatusIncomplete = "incomplete"
	SubscriptionStatusCanceled   = "canceled"
	SubscriptionStatusPaused     = "paused"
)

// Subscription is the live snapshot of an organization's paid plan as last
// reported by the payment provider. Status is the provider's string, stored
// verbatim after normalization; interpreting it is the billing service's job.
// One live row per organization.
type Subscription struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	OrgID                  uint       `gorm:"not null;uniqueIndex" json:"org_id"`
	PlanCode               string     `gorm:"type:varchar(50);not null;index" json:"plan_code"`
	Provider               string     `gorm:"type:varchar(20);not null;index:ux_subscriptions_provider_subid,unique,priority:1" json:"provider"`
	ProviderSubscriptionID string     `gorm:"type:varchar(191);not null;index:ux_subscriptions_provider_subid,unique,priority:2" json:"provider_subscription_id"`
	Status                 string     `gorm:"type:varchar(32);not null;default:'active';index" json:"status"`
	BillingInterval        string     `gorm:"type:varchar(16);not null;default:'unknown'" json:"billing_interval"`
	CurrentPeriodStart     *time.Time `gorm:"type:timestamp;default:null" json:"current_period_start,omitempty"`
	CurrentPeriodEnd       *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	CancelAtPeriodEnd      bool       `gorm:"default:false" json:"cancel_at_period_end"`
	CreatedAt              time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
