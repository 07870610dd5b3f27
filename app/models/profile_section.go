package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// ProfileSection stores how complete one section of an organization profile
// is. Section keys are owned by the readiness package; this table just
// persists the percentages the scorer consumes.
type ProfileSection struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	OrgID             uint      `gorm:"not null;index:ux_profile_sections_org_section,unique,priority:1" json:"org_id"`
	Section           string    `gorm:"type:varchar(50);not null;index:ux_profile_sections_org_section,unique,priority:2" json:"section" validate:"required"`
	CompletionPercent int       `gorm:"not null;default:0" json:"completion_percent" validate:"min=0,max=100"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *ProfileSection) Validate() error {
	v := validator.New()

	return v.Struct(s)
}

const (
	DocumentKindPitchDeck      = "pitch_deck"
	DocumentKindFinancialModel = "financial_model"
)

// OrganizationDocument records an uploaded document reference. The object
// itself lives in the object store; the core only cares that required kinds
// exist.
type OrganizationDocument struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrgID      uint      `gorm:"not null;index:ux_org_documents_org_kind,unique,priority:1" json:"org_id"`
	Kind       string    `gorm:"type:varchar(50);not null;index:ux_org_documents_org_kind,unique,priority:2" json:"kind"`
	ObjectKey  string    `gorm:"type:varchar(255);not null" json:"object_key"`
	FileName   string    `gorm:"type:varchar(255)" json:"file_name"`
	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}

// RequiredDocumentKinds lists the document kinds a startup must upload before
// it can be posted to discovery.
func RequiredDocumentKinds() []string {
	return []string{DocumentKindPitchDeck, DocumentKindFinancialModel}
}
