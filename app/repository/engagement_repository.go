package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/foundersbridge/foundersbridge/app/models"
	"github.com/foundersbridge/foundersbridge/internal/pkg/verdict"
)

// engagementRequestRepository implements the EngagementRequestRepository interface
type engagementRequestRepository struct {
	db *gorm.DB
}

// NewEngagementRequestRepository creates a new engagement request repository instance
func NewEngagementRequestRepository(db *gorm.DB) EngagementRequestRepository {
	return &engagementRequestRepository{db: db}
}

// Create persists a new request
func (r *engagementRequestRepository) Create(req *models.EngagementRequest) error {
	return r.db.Create(req).Error
}

// GetByPublicID retrieves a request by its public UUID
func (r *engagementRequestRepository) GetByPublicID(publicID string) (*models.EngagementRequest, error) {
	var req models.EngagementRequest
	err := r.db.Where("public_id = ?", publicID).First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Transition moves a request to nextStatus only if it currently has
// expectedStatus. Zero affected rows means another transition won the race
// and the caller gets verdict.ErrConflict.
func (r *engagementRequestRepository) Transition(id uint, expectedStatus, nextStatus string, respondedAt *time.Time, prepRoomID *string) error {
	updates := map[string]interface{}{
		"status":       nextStatus,
		"responded_at": respondedAt,
		"prep_room_id": prepRoomID,
	}
	res := r.db.Model(&models.EngagementRequest{}).
		Where("id = ? AND status = ?", id, expectedStatus).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return verdict.ErrConflict
	}
	return nil
}

// ListOpenOlderThan retrieves sent requests created before the cutoff, oldest
// first, for the expiry sweep.
func (r *engagementRequestRepository) ListOpenOlderThan(cutoff time.Time, limit int) ([]models.EngagementRequest, error) {
	var reqs []models.EngagementRequest
	q := r.db.Where("status = ? AND created_at < ?", models.EngagementStatusSent, cutoff).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&reqs).Error
	return reqs, err
}

// ListByStartupOrg retrieves requests sent by a startup organization
func (r *engagementRequestRepository) ListByStartupOrg(orgID uint, offset, limit int) ([]models.EngagementRequest, error) {
	var reqs []models.EngagementRequest
	err := r.db.Where("startup_org_id = ?", orgID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&reqs).Error
	return reqs, err
}

// ListByAdvisorOrg retrieves requests addressed to an advisor organization
func (r *engagementRequestRepository) ListByAdvisorOrg(orgID uint, offset, limit int) ([]models.EngagementRequest, error) {
	var reqs []models.EngagementRequest
	err := r.db.Where("advisor_org_id = ?", orgID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&reqs).Error
	return reqs, err
}
