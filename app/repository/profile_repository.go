package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/foundersbridge/foundersbridge/app/models"
)

// profileRepository implements the ProfileRepository interface
type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository instance
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// UpsertSection writes a section completion value, replacing any earlier
// value for the same organization and section.
func (r *profileRepository) UpsertSection(section *models.ProfileSection) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "org_id"}, {Name: "section"}},
		DoUpdates: clause.AssignmentColumns([]string{"completion_percent", "updated_at"}),
	}).Create(section).Error
}

// ListSectionsByOrg retrieves all recorded section completions for an organization
func (r *profileRepository) ListSectionsByOrg(orgID uint) ([]models.ProfileSection, error) {
	var sections []models.ProfileSection
	err := r.db.Where("org_id = ?", orgID).Find(&sections).Error
	return sections, err
}

// UpsertDocument records an uploaded document, replacing any earlier upload
// of the same kind for the organization.
func (r *profileRepository) UpsertDocument(doc *models.OrganizationDocument) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "org_id"}, {Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"object_key", "file_name", "updated_at"}),
	}).Create(doc).Error
}

// ListDocumentsByOrg retrieves all documents recorded for an organization
func (r *profileRepository) ListDocumentsByOrg(orgID uint) ([]models.OrganizationDocument, error) {
	var docs []models.OrganizationDocument
	err := r.db.Where("org_id = ?", orgID).Find(&docs).Error
	return docs, err
}

// HasRequiredDocuments reports whether every required document kind has an
// upload recorded for the organization.
func (r *profileRepository) HasRequiredDocuments(orgID uint) (bool, error) {
	required := models.RequiredDocumentKinds()
	var count int64
	err := r.db.Model(&models.OrganizationDocument{}).
		Where("org_id = ? AND kind IN ?", orgID, required).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count == int64(len(required)), nil
}
