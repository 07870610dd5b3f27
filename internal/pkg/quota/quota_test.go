package quota

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/foundersbridge/foundersbridge/app/models"
	"github.com/foundersbridge/foundersbridge/internal/pkg/billing"
	"github.com/foundersbridge/foundersbridge/internal/pkg/entitlements"
)

type fakeBillingRepo struct {
	plans map[string][]models.BillingPlan
	subs  map[uint]*models.Subscription
}

func (f *fakeBillingRepo) ListPlansBySegment(segment string) ([]models.BillingPlan, error) {
	return f.plans[segment], nil
}

func (f *fakeBillingRepo) GetSubscriptionByOrg(orgID uint) (*models.Subscription, error) {
	if sub, ok := f.subs[orgID]; ok {
		return sub, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBillingRepo) UpsertSubscription(sub *models.Subscription) error {
	f.subs[sub.OrgID] = sub
	return nil
}

func (f *fakeBillingRepo) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	return true, event, nil
}

func (f *fakeBillingRepo) MarkWebhookProcessed(id uint, processingError string) error {
	return nil
}

type usageKey struct {
	orgID uint
	key   string
	start time.Time
}

type fakeUsage struct {
	mu   sync.Mutex
	rows map[usageKey]*models.FeatureUsage
}

func newFakeUsage() *fakeUsage {
	return &fakeUsage{rows: make(map[usageKey]*models.FeatureUsage)}
}

func (f *fakeUsage) ListForPeriod(orgID uint, featureKey string, periodStart time.Time) ([]models.FeatureUsage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[usageKey{orgID, featureKey, periodStart}]; ok {
		return []models.FeatureUsage{*row}, nil
	}
	return nil, nil
}

func (f *fakeUsage) row(orgID uint, featureKey string, periodStart, periodEnd time.Time) *models.FeatureUsage {
	k := usageKey{orgID, featureKey, periodStart}
	if row, ok := f.rows[k]; ok {
		return row
	}
	row := &models.FeatureUsage{OrgID: orgID, FeatureKey: featureKey, PeriodStart: periodStart, PeriodEnd: periodEnd}
	f.rows[k] = row
	return row
}

func (f *fakeUsage) TryConsume(orgID uint, featureKey string, periodStart, periodEnd time.Time, limit int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := f.row(orgID, featureKey, periodStart, periodEnd)
	if row.Used >= limit {
		return false, nil
	}
	row.Used++
	return true, nil
}

func (f *fakeUsage) Increment(orgID uint, featureKey string, periodStart, periodEnd time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.row(orgID, featureKey, periodStart, periodEnd).Used++
	return nil
}

func (f *fakeUsage) Release(orgID uint, featureKey string, periodStart time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[usageKey{orgID, featureKey, periodStart}]; ok && row.Used > 0 {
		row.Used--
	}
	return nil
}

// contendedUsage reports headroom on evaluation but always loses the
// conditional consume, as if another consumer took the last unit in between.
type contendedUsage struct {
	*fakeUsage
}

func (c *contendedUsage) TryConsume(orgID uint, featureKey string, periodStart, periodEnd time.Time, limit int) (bool, error) {
	return false, nil
}

type fakeOrgs struct {
	orgs map[uint]*models.Organization
}

func (f *fakeOrgs) Create(org *models.Organization) error                { return nil }
func (f *fakeOrgs) Update(org *models.Organization) error                { return nil }
func (f *fakeOrgs) UpdateVerificationStatus(id uint, status string) error { return nil }
func (f *fakeOrgs) Count() (int64, error)                                { return 0, nil }

func (f *fakeOrgs) GetByID(id uint) (*models.Organization, error) {
	if org, ok := f.orgs[id]; ok {
		return org, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrgs) ListByType(orgType string, offset, limit int) ([]models.Organization, error) {
	return nil, nil
}

func newTestService(plans []models.BillingPlan) (*Service, *fakeUsage, *fakeOrgs) {
	segment := plans[0].Segment
	repo := &fakeBillingRepo{
		plans: map[string][]models.BillingPlan{segment: plans},
		subs:  make(map[uint]*models.Subscription),
	}
	usage := newFakeUsage()
	orgs := &fakeOrgs{orgs: make(map[uint]*models.Organization)}
	return NewService(billing.NewService(repo), usage, orgs), usage, orgs
}

func advisorOrg(id uint) *models.Organization {
	org := &models.Organization{
		Type:               models.OrgTypeAdvisor,
		VerificationStatus: models.VerificationApproved,
		Name:               "Advisory One",
	}
	org.ID = id
	return org
}

func advisorPlans(limit int) []models.BillingPlan {
	return []models.BillingPlan{
		{PlanCode: "advisor_free", Segment: models.OrgTypeAdvisor, Tier: 0, DisplayName: "Free",
			Features: []models.PlanFeature{{Key: "advisor_proposal_responses", Limit: &limit}}},
	}
}

func TestConsumeSpendsUnitsUntilExhausted(t *testing.T) {
	svc, _, orgs := newTestService(advisorPlans(2))
	org := advisorOrg(7)
	orgs.orgs[org.ID] = org
	now := time.Now()
	ctx := context.Background()

	first, err := svc.Consume(ctx, org, entitlements.FeatureAdvisorProposalResponses, now)
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	require.NotNil(t, first.Remaining)
	assert.Equal(t, 1, *first.Remaining)
	assert.Equal(t, 1, first.Used)

	second, err := svc.Consume(ctx, org, entitlements.FeatureAdvisorProposalResponses, now)
	require.NoError(t, err)
	assert.True(t, second.Allowed)
	require.NotNil(t, second.Remaining)
	assert.Equal(t, 0, *second.Remaining)

	third, err := svc.Consume(ctx, org, entitlements.FeatureAdvisorProposalResponses, now)
	require.NoError(t, err)
	assert.False(t, third.Allowed)
	assert.NotEmpty(t, third.Message)
}

func TestConsumeUnlimitedCountsWithoutGate(t *testing.T) {
	plans := []models.BillingPlan{
		{PlanCode: "advisor_pro", Segment: models.OrgTypeAdvisor, Tier: 1, DisplayName: "Pro",
			Features: []models.PlanFeature{{Key: "advisor_proposal_responses", Limit: nil}}},
	}
	svc, usage, orgs := newTestService(plans)
	org := advisorOrg(9)
	orgs.orgs[org.ID] = org
	now := time.Now()

	for i := 0; i < 5; i++ {
		res, err := svc.Consume(context.Background(), org, entitlements.FeatureAdvisorProposalResponses, now)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.True(t, res.Unlimited)
	}

	var total int
	for _, row := range usage.rows {
		total += row.Used
	}
	assert.Equal(t, 5, total)
}

func TestReleaseRefundsConsumedUnit(t *testing.T) {
	svc, _, orgs := newTestService(advisorPlans(1))
	org := advisorOrg(3)
	orgs.orgs[org.ID] = org
	now := time.Now()
	ctx := context.Background()

	res, err := svc.ConsumeProposalResponse(ctx, org.ID, now)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	blocked, err := svc.ConsumeProposalResponse(ctx, org.ID, now)
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	require.NoError(t, svc.ReleaseProposalResponse(ctx, org.ID, now))

	again, err := svc.ConsumeProposalResponse(ctx, org.ID, now)
	require.NoError(t, err)
	assert.True(t, again.Allowed)
}

func TestConcurrentConsumeOfLastUnit(t *testing.T) {
	svc, _, orgs := newTestService(advisorPlans(1))
	org := advisorOrg(4)
	orgs.orgs[org.ID] = org
	now := time.Now()

	const racers = 8
	var wg sync.WaitGroup
	results := make([]entitlements.GateResult, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Consume(context.Background(), org, entitlements.FeatureAdvisorProposalResponses, now)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	allowed := 0
	for _, res := range results {
		if res.Allowed {
			allowed++
		} else {
			assert.NotEmpty(t, res.Message, "losing racers must still explain the denial")
		}
	}
	assert.Equal(t, 1, allowed, "exactly one racer may take the last unit")
}

func TestConsumeLostLastUnitCarriesMessage(t *testing.T) {
	plans := advisorPlans(2)
	segment := plans[0].Segment
	repo := &fakeBillingRepo{
		plans: map[string][]models.BillingPlan{segment: plans},
		subs:  make(map[uint]*models.Subscription),
	}
	usage := &contendedUsage{fakeUsage: newFakeUsage()}
	orgs := &fakeOrgs{orgs: make(map[uint]*models.Organization)}
	svc := NewService(billing.NewService(repo), usage, orgs)

	org := advisorOrg(11)
	orgs.orgs[org.ID] = org

	res, err := svc.Consume(context.Background(), org, entitlements.FeatureAdvisorProposalResponses, time.Now())
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.NotEmpty(t, res.Message)
	require.NotNil(t, res.Remaining)
	assert.Equal(t, 0, *res.Remaining)
	assert.Equal(t, 2, res.Used)
}
