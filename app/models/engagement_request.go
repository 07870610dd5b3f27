package models

import "time"

const (
	EngagementStatusSent      = "sent"
	EngagementStatusAccepted  = "accepted"
	EngagementStatusRejected  = "rejected"
	EngagementStatusCancelled = "cancelled"
	EngagementStatusExpired   = "expired"
)

// EngagementRequest is a startup's proposal to an advisor organization.
// Sent is the only initial state; accepted, rejected, cancelled and expired
// are all terminal. Rows are only mutated through the engagement machine's
// conditional transition, never by direct updates.
type EngagementRequest struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	PublicID     string     `gorm:"type:varchar(36);not null;uniqueIndex" json:"public_id"`
	StartupOrgID uint       `gorm:"not null;index" json:"startup_org_id"`
	AdvisorOrgID uint       `gorm:"not null;index" json:"advisor_org_id"`
	Status       string     `gorm:"type:varchar(20);not null;default:'sent';index" json:"status"`
	Message      string     `gorm:"type:text" json:"message"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RespondedAt  *time.Time `gorm:"type:timestamp;default:null" json:"responded_at,omitempty"`
	PrepRoomID   *string    `gorm:"type:varchar(64);default:null" json:"prep_room_id,omitempty"`
}

// IsResolved reports whether the request left the sent state.
func (r *EngagementRequest) IsResolved() bool {
	return r.Status != EngagementStatusSent
}

// Age returns how long the request has been open relative to now.
func (r *EngagementRequest) Age(now time.Time) time.Duration {
	return now.Sub(r.CreatedAt)
}
