package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/foundersbridge/foundersbridge/app/models"
)

// usageRepository implements the UsageRepository interface
type usageRepository struct {
	db *gorm.DB
}

// NewUsageRepository creates a new usage repository instance
func NewUsageRepository(db *gorm.DB) UsageRepository {
	return &usageRepository{db: db}
}

// ListForPeriod retrieves the usage rows for a feature and billing period
func (r *usageRepository) ListForPeriod(orgID uint, featureKey string, periodStart time.Time) ([]models.FeatureUsage, error) {
	var rows []models.FeatureUsage
	err := r.db.Where("org_id = ? AND feature_key = ? AND period_start = ?", orgID, featureKey, periodStart).
		Find(&rows).Error
	return rows, err
}

// ensureRow creates the counter row for the period if it does not exist yet.
// The unique index on (org_id, feature_key, period_start) makes the insert a
// no-op when two callers race.
func (r *usageRepository) ensureRow(orgID uint, featureKey string, periodStart, periodEnd time.Time) error {
	row := models.FeatureUsage{
		OrgID:       orgID,
		FeatureKey:  featureKey,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Used:        0,
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

// TryConsume atomically increments the period counter while it is still below
// the limit. The conditional update is the check: zero affected rows means
// the quota is exhausted and nothing was consumed.
func (r *usageRepository) TryConsume(orgID uint, featureKey string, periodStart, periodEnd time.Time, limit int) (bool, error) {
	if err := r.ensureRow(orgID, featureKey, periodStart, periodEnd); err != nil {
		return false, err
	}
	res := r.db.Model(&models.FeatureUsage{}).
		Where("org_id = ? AND feature_key = ? AND period_start = ? AND used < ?", orgID, featureKey, periodStart, limit).
		Update("used", gorm.Expr("used + ?", 1))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Increment bumps the period counter without a limit check, for unlimited
// plans where the count is reporting-only.
func (r *usageRepository) Increment(orgID uint, featureKey string, periodStart, periodEnd time.Time) error {
	if err := r.ensureRow(orgID, featureKey, periodStart, periodEnd); err != nil {
		return err
	}
	return r.db.Model(&models.FeatureUsage{}).
		Where("org_id = ? AND feature_key = ? AND period_start = ?", orgID, featureKey, periodStart).
		Update("used", gorm.Expr("used + ?", 1)).Error
}

// Release undoes a consume whose follow-up work failed. The counter never
// goes below zero.
func (r *usageRepository) Release(orgID uint, featureKey string, periodStart time.Time) error {
	return r.db.Model(&models.FeatureUsage{}).
		Where("org_id = ? AND feature_key = ? AND period_start = ? AND used > 0", orgID, featureKey, periodStart).
		Update("used", gorm.Expr("used - ?", 1)).Error
}
