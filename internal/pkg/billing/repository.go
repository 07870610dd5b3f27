package billing

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/foundersbridge/foundersbridge/app/models"
)

// Repository provides DB operations used by the billing service.
type Repository interface {
	ListPlansBySegment(segment string) ([]models.BillingPlan, error)
	GetSubscriptionByOrg(orgID uint) (*models.Subscription, error)
	UpsertSubscription(sub *models.Subscription) error
	CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) ListPlansBySegment(segment string) ([]models.BillingPlan, error) {
	var plans []models.BillingPlan
	err := r.db.Where("segment = ?", segment).Order("tier ASC").Find(&plans).Error
	return plans, err
}

func (r *gormRepository) GetSubscriptionByOrg(orgID uint) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.Where("org_id = ?", orgID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) UpsertSubscription(sub *models.Subscription) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "org_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"plan_code",
			"provider",
			"provider_subscription_id",
			"status",
			"billing_interval",
			"current_period_start",
			"current_period_end",
			"cancel_at_period_end",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("org_id = ?", sub.OrgID).First(sub).Error
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.BillingWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.BillingWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
