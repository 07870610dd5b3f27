package models

import "time"

// FeatureUsage is a per-organization, per-feature counter scoped to one
// billing period. Counters are only ever moved forward by the conditional
// consume in the usage repository; new periods get fresh rows.
type FeatureUsage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OrgID       uint      `gorm:"not null;index:ux_feature_usage_org_key_period,unique,priority:1" json:"org_id"`
	FeatureKey  string    `gorm:"type:varchar(50);not null;index:ux_feature_usage_org_key_period,unique,priority:2" json:"feature_key"`
	PeriodStart time.Time `gorm:"type:timestamp;not null;index:ux_feature_usage_org_key_period,unique,priority:3" json:"period_start"`
	PeriodEnd   time.Time `gorm:"type:timestamp;not null" json:"period_end"`
	Used        int       `gorm:"not null;default:0" json:"used"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// CoversInstant reports whether the row's period contains the given instant.
func (u *FeatureUsage) CoversInstant(t time.Time) bool {
	return !t.Before(u.PeriodStart) && t.Before(u.PeriodEnd)
}
