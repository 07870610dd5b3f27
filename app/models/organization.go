package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	OrgTypeStartup  = "startup"
	OrgTypeInvestor = "investor"
	OrgTypeAdvisor  = "advisor"
)

const (
	VerificationUnverified = "unverified"
	VerificationPending    = "pending"
	VerificationApproved   = "approved"
	VerificationRejected   = "rejected"
)

// Organization is a workspace tenant: a startup, an investor firm or an
// advisory practice. VerificationStatus is only ever written by the review
// process, never by members.
type Organization struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Type               string         `gorm:"type:varchar(20);not null;index" json:"type" validate:"oneof=startup investor advisor"`
	VerificationStatus string         `gorm:"type:varchar(20);not null;default:'unverified';index" json:"verification_status" validate:"oneof=unverified pending approved rejected"`
	Name               string         `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	Location           string         `gorm:"type:varchar(150)" json:"location" validate:"max=150"`
	LogoURL            string         `gorm:"type:varchar(255)" json:"logo_url" validate:"omitempty,url,max=255"`
	IndustryTags       []string       `gorm:"serializer:json;type:text" json:"industry_tags"`
	ProfileViewCount   int64          `gorm:"not null;default:0" json:"profile_view_count"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (o *Organization) Validate() error {
	v := validator.New()

	return v.Struct(o)
}

// IsApproved reports whether the organization passed verification review.
func (o *Organization) IsApproved() bool {
	return o.VerificationStatus == VerificationApproved
}

// HasIndustryTag reports whether the organization carries the given tag.
func (o *Organization) HasIndustryTag(tag string) bool {
	for _, t := range o.IndustryTags {
		if t == tag {
			return true
		}
	}
	return false
}
