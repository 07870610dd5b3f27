package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/foundersbridge/foundersbridge/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
}

// OrganizationRepository defines the interface for organization operations
type OrganizationRepository interface {
	Create(org *models.Organization) error
	GetByID(id uint) (*models.Organization, error)
	Update(org *models.Organization) error
	UpdateVerificationStatus(id uint, status string) error
	ListByType(orgType string, offset, limit int) ([]models.Organization, error)
	Count() (int64, error)
}

// MembershipRepository defines the interface for membership operations
type MembershipRepository interface {
	Create(m *models.Membership) error
	GetPrimaryByUser(userID uint) (*models.Membership, error)
	GetByUserAndOrg(userID, orgID uint) (*models.Membership, error)
	ListByOrg(orgID uint) ([]models.Membership, error)
}

// ProfileRepository defines the interface for profile sections and documents
type ProfileRepository interface {
	UpsertSection(section *models.ProfileSection) error
	ListSectionsByOrg(orgID uint) ([]models.ProfileSection, error)
	UpsertDocument(doc *models.OrganizationDocument) error
	ListDocumentsByOrg(orgID uint) ([]models.OrganizationDocument, error)
	HasRequiredDocuments(orgID uint) (bool, error)
}

// UsageRepository defines the interface for metered feature counters.
// TryConsume is the atomic check-then-increment: it only succeeds while the
// current-period counter is below the limit.
type UsageRepository interface {
	ListForPeriod(orgID uint, featureKey string, periodStart time.Time) ([]models.FeatureUsage, error)
	TryConsume(orgID uint, featureKey string, periodStart, periodEnd time.Time, limit int) (bool, error)
	Increment(orgID uint, featureKey string, periodStart, periodEnd time.Time) error
	Release(orgID uint, featureKey string, periodStart time.Time) error
}

// EngagementRequestRepository persists engagement requests. It satisfies the
// engagement machine's Store contract; Transition is a conditional update on
// the expected current status.
type EngagementRequestRepository interface {
	Create(req *models.EngagementRequest) error
	GetByPublicID(publicID string) (*models.EngagementRequest, error)
	Transition(id uint, expectedStatus, nextStatus string, respondedAt *time.Time, prepRoomID *string) error
	ListOpenOlderThan(cutoff time.Time, limit int) ([]models.EngagementRequest, error)
	ListByStartupOrg(orgID uint, offset, limit int) ([]models.EngagementRequest, error)
	ListByAdvisorOrg(orgID uint, offset, limit int) ([]models.EngagementRequest, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User         UserRepository
	Organization OrganizationRepository
	Membership   MembershipRepository
	Profile      ProfileRepository
	Usage        UsageRepository
	Engagement   EngagementRequestRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Organization: NewOrganizationRepository(db),
		Membership:   NewMembershipRepository(db),
		Profile:      NewProfileRepository(db),
		Usage:        NewUsageRepository(db),
		Engagement:   NewEngagementRequestRepository(db),
	}
}
