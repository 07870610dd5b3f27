package repository

import (
	"gorm.io/gorm"

	"github.com/foundersbridge/foundersbridge/app/models"
)

// membershipRepository implements the MembershipRepository interface
type membershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository creates a new membership repository instance
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

// Create creates a membership. The first primary membership per user wins;
// creating a second primary demotes nothing and fails on the caller's check.
func (r *membershipRepository) Create(m *models.Membership) error {
	return r.db.Create(m).Error
}

// GetPrimaryByUser resolves the membership that decides which organization
// the user acts as.
func (r *membershipRepository) GetPrimaryByUser(userID uint) (*models.Membership, error) {
	var m models.Membership
	err := r.db.Where("user_id = ? AND is_primary = ?", userID, true).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByUserAndOrg retrieves the membership linking a user to an organization
func (r *membershipRepository) GetByUserAndOrg(userID, orgID uint) (*models.Membership, error) {
	var m models.Membership
	err := r.db.Where("user_id = ? AND org_id = ?", userID, orgID).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByOrg retrieves all memberships of an organization
func (r *membershipRepository) ListByOrg(orgID uint) ([]models.Membership, error) {
	var ms []models.Membership
	err := r.db.Where("org_id = ?", orgID).Order("joined_at ASC").Find(&ms).Error
	return ms, err
}
