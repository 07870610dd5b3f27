package repository

import (
	"gorm.io/gorm"

	"github.com/foundersbridge/foundersbridge/app/models"
)

// organizationRepository implements the OrganizationRepository interface
type organizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository creates a new organization repository instance
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

// Create creates a new organization
func (r *organizationRepository) Create(org *models.Organization) error {
	return r.db.Create(org).Error
}

// GetByID retrieves an organization by ID
func (r *organizationRepository) GetByID(id uint) (*models.Organization, error) {
	var org models.Organization
	err := r.db.First(&org, id).Error
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// Update saves identity fields. Verification status is excluded on purpose;
// only the review process writes it, through UpdateVerificationStatus.
func (r *organizationRepository) Update(org *models.Organization) error {
	return r.db.Model(org).Select("name", "location", "logo_url", "industry_tags", "updated_at").Updates(org).Error
}

// UpdateVerificationStatus records the review outcome for an organization
func (r *organizationRepository) UpdateVerificationStatus(id uint, status string) error {
	return r.db.Model(&models.Organization{}).Where("id = ?", id).Update("verification_status", status).Error
}

// ListByType retrieves organizations of a given type with pagination
func (r *organizationRepository) ListByType(orgType string, offset, limit int) ([]models.Organization, error) {
	var orgs []models.Organization
	err := r.db.Where("type = ?", orgType).Offset(offset).Limit(limit).Order("created_at DESC").Find(&orgs).Error
	return orgs, err
}

// Count returns the total number of organizations
func (r *organizationRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Organization{}).Count(&count).Error
	return count, err
}
