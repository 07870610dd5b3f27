package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/foundersbridge/foundersbridge/app/models"
	"github.com/foundersbridge/foundersbridge/internal/pkg/verdict"
)

type fakeRepo struct {
	plans  map[string][]models.BillingPlan
	subs   map[uint]*models.Subscription
	events map[string]*models.BillingWebhookEvent
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		plans:  make(map[string][]models.BillingPlan),
		subs:   make(map[uint]*models.Subscription),
		events: make(map[string]*models.BillingWebhookEvent),
	}
}

func (f *fakeRepo) ListPlansBySegment(segment string) ([]models.BillingPlan, error) {
	return f.plans[segment], nil
}

func (f *fakeRepo) GetSubscriptionByOrg(orgID uint) (*models.Subscription, error) {
	if sub, ok := f.subs[orgID]; ok {
		return sub, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) UpsertSubscription(sub *models.Subscription) error {
	f.subs[sub.OrgID] = sub
	return nil
}

func (f *fakeRepo) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	key := event.Provider + "/" + event.ProviderEventID
	if stored, ok := f.events[key]; ok {
		return false, stored, nil
	}
	f.events[key] = event
	return true, event, nil
}

func (f *fakeRepo) MarkWebhookProcessed(id uint, processingError string) error {
	return nil
}

func startupCatalog() []models.BillingPlan {
	limit2, limit20 := 2, 20
	return []models.BillingPlan{
		{PlanCode: "startup_free", Segment: "startup", Tier: 0, DisplayName: "Free",
			Features: []models.PlanFeature{{Key: "consultant_requests", Limit: &limit2}}},
		{PlanCode: "startup_growth", Segment: "startup", Tier: 1, DisplayName: "Growth",
			Features: []models.PlanFeature{{Key: "consultant_requests", Limit: &limit20}}},
	}
}

func TestResolvePlanContextEntitling(t *testing.T) {
	repo := newFakeRepo()
	repo.plans["startup"] = startupCatalog()
	repo.subs[1] = &models.Subscription{OrgID: 1, PlanCode: "startup_growth", Status: "active"}
	svc := NewService(repo)

	org := &models.Organization{ID: 1, Type: models.OrgTypeStartup}
	pc, err := svc.ResolvePlanContext(context.Background(), org, time.Now())
	if err != nil {
		t.Fatalf("ResolvePlanContext: %v", err)
	}
	if pc.CurrentPlan == nil || pc.CurrentPlan.PlanCode != "startup_growth" {
		t.Fatalf("current plan = %+v, want startup_growth", pc.CurrentPlan)
	}
	if pc.PeriodEnd.Before(pc.PeriodStart) {
		t.Fatal("period end before start")
	}
}

func TestResolvePlanContextNonEntitlingFallsBack(t *testing.T) {
	repo := newFakeRepo()
	repo.plans["startup"] = startupCatalog()
	repo.subs[1] = &models.Subscription{OrgID: 1, PlanCode: "startup_growth", Status: "past_due"}
	svc := NewService(repo)

	org := &models.Organization{ID: 1, Type: models.OrgTypeStartup}
	pc, err := svc.ResolvePlanContext(context.Background(), org, time.Now())
	if err != nil {
		t.Fatalf("ResolvePlanContext: %v", err)
	}
	if pc.CurrentPlan != nil {
		t.Fatalf("past_due subscription must resolve to no current plan, got %s", pc.CurrentPlan.PlanCode)
	}
	if len(pc.Plans) != 2 || pc.Plans[0].PlanCode != "startup_free" {
		t.Fatalf("catalog must stay tier-ordered: %+v", pc.Plans)
	}
}

func TestResolvePlanContextNoSubscription(t *testing.T) {
	repo := newFakeRepo()
	repo.plans["startup"] = startupCatalog()
	svc := NewService(repo)

	org := &models.Organization{ID: 7, Type: models.OrgTypeStartup}
	pc, err := svc.ResolvePlanContext(context.Background(), org, time.Now())
	if err != nil {
		t.Fatalf("ResolvePlanContext: %v", err)
	}
	if pc.CurrentPlan != nil {
		t.Fatal("missing subscription must resolve to no current plan")
	}
}

func TestResolvePlanContextEmptyCatalogIsConfigError(t *testing.T) {
	svc := NewService(newFakeRepo())
	org := &models.Organization{ID: 1, Type: models.OrgTypeAdvisor}
	if _, err := svc.ResolvePlanContext(context.Background(), org, time.Now()); !errors.Is(err, verdict.ErrConfig) {
		t.Fatalf("want config error, got %v", err)
	}
}

func TestSyncSubscriptionNormalizes(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	sub, err := svc.SyncSubscription(context.Background(), NormalizedSubscription{
		OrgID:                  3,
		PlanCode:               "advisor_pro",
		Provider:               " Stripe ",
		ProviderSubscriptionID: "sub_123",
		Status:                 "Trialing",
		BillingInterval:        "year",
	})
	if err != nil {
		t.Fatalf("SyncSubscription: %v", err)
	}
	if sub.Provider != "stripe" || sub.Status != "trialing" || sub.BillingInterval != "annual" {
		t.Fatalf("normalization wrong: %+v", sub)
	}

	if _, err := svc.SyncSubscription(context.Background(), NormalizedSubscription{}); err == nil {
		t.Fatal("missing identifiers must error")
	}
}

func TestRecordWebhookEventIdempotent(t *testing.T) {
	svc := NewService(newFakeRepo())

	created, _, err := svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		Provider:        "stripe",
		ProviderEventID: "evt_1",
		EventType:       "subscription.updated",
		PayloadJSON:     "{}",
	})
	if err != nil || !created {
		t.Fatalf("first record: created=%v err=%v", created, err)
	}

	created, stored, err := svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		Provider:        "stripe",
		ProviderEventID: "evt_1",
		EventType:       "subscription.updated",
		PayloadJSON:     "{}",
	})
	if err != nil || created {
		t.Fatalf("replay must not create: created=%v err=%v", created, err)
	}
	if stored == nil {
		t.Fatal("replay must return stored event")
	}
}
