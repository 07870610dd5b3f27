package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	MemberRoleOwner  = "owner"
	MemberRoleAdmin  = "admin"
	MemberRoleMember = "member"
)

// Membership links a user to an organization. Exactly one membership per user
// is primary; that one decides which organization the user acts as. Roles are
// assigned at onboarding and never change automatically.
type Membership struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:ux_memberships_user_org,unique,priority:1" json:"user_id" validate:"required"`
	OrgID     uint      `gorm:"not null;index:ux_memberships_user_org,unique,priority:2;index" json:"org_id" validate:"required"`
	Role      string    `gorm:"type:varchar(20);not null;default:'member'" json:"role" validate:"oneof=owner admin member"`
	IsPrimary bool      `gorm:"not null;default:false;index" json:"is_primary"`
	JoinedAt  time.Time `gorm:"autoCreateTime" json:"joined_at"`

	Organization Organization `gorm:"foreignKey:OrgID" json:"-"`
}

func (m *Membership) Validate() error {
	v := validator.New()

	return v.Struct(m)
}

// IsOwner reports whether the member may edit organization identity.
func (m *Membership) IsOwner() bool {
	return m.Role == MemberRoleOwner
}
