package engagement

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/foundersbridge/foundersbridge/app/models"
	"github.com/foundersbridge/foundersbridge/internal/pkg/entitlements"
	"github.com/foundersbridge/foundersbridge/internal/pkg/verdict"
)

// memStore is an in-memory Store whose Transition performs the same
// compare-and-swap the GORM repository does with a conditional UPDATE.
type memStore struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]*models.EngagementRequest
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[uint]*models.EngagementRequest)}
}

func (s *memStore) Create(req *models.EngagementRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	req.ID = s.nextID
	req.CreatedAt = time.Now()
	clone := *req
	s.rows[req.ID] = &clone
	return nil
}

func (s *memStore) GetByPublicID(publicID string) (*models.EngagementRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.PublicID == publicID {
			clone := *r
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (s *memStore) Transition(id uint, expectedStatus, nextStatus string, respondedAt *time.Time, prepRoomID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok || row.Status != expectedStatus {
		return verdict.ErrConflict
	}
	row.Status = nextStatus
	row.RespondedAt = respondedAt
	if prepRoomID != nil {
		row.PrepRoomID = prepRoomID
	}
	return nil
}

func (s *memStore) ListOpenOlderThan(cutoff time.Time, limit int) ([]models.EngagementRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.EngagementRequest
	for _, r := range s.rows {
		if r.Status == models.EngagementStatusSent && r.CreatedAt.Before(cutoff) && len(out) < limit {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *memStore) get(id uint) models.EngagementRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.rows[id]
}

// memQuota mirrors the atomic conditional consume of the usage repository.
type memQuota struct {
	mu        sync.Mutex
	remaining int
	consumed  int
	released  int
}

func (q *memQuota) ConsumeProposalResponse(_ context.Context, _ uint, _ time.Time) (entitlements.GateResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.remaining <= 0 {
		return entitlements.GateResult{
			Feature: entitlements.FeatureAdvisorProposalResponses,
			Message: "proposal response limit reached",
		}, nil
	}
	q.remaining--
	q.consumed++
	rem := q.remaining
	return entitlements.GateResult{
		Feature:   entitlements.FeatureAdvisorProposalResponses,
		Allowed:   true,
		Remaining: &rem,
	}, nil
}

func (q *memQuota) ReleaseProposalResponse(_ context.Context, _ uint, _ time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.remaining++
	q.released++
	return nil
}

type memRooms struct {
	mu      sync.Mutex
	created int
}

func (r *memRooms) CreatePrepRoom(_ context.Context, req *models.EngagementRequest) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created++
	return fmt.Sprintf("room-%s-%d", req.PublicID, r.created), nil
}

func fixtures() (startup, advisor *models.Organization, startupMember, advisorMember *models.Membership) {
	startup = &models.Organization{ID: 1, Type: models.OrgTypeStartup, VerificationStatus: models.VerificationApproved, Name: "Acme"}
	advisor = &models.Organization{ID: 2, Type: models.OrgTypeAdvisor, VerificationStatus: models.VerificationApproved, Name: "Sage Advisory"}
	startupMember = &models.Membership{UserID: 10, OrgID: 1, Role: models.MemberRoleOwner}
	advisorMember = &models.Membership{UserID: 20, OrgID: 2, Role: models.MemberRoleOwner}
	return
}

func newTestMachine(store Store, quota Quota) *Machine {
	return NewMachine(store, quota, &memRooms{}, DefaultExpiryWindow)
}

func TestCreateSetsSentState(t *testing.T) {
	store := newMemStore()
	m := newTestMachine(store, &memQuota{remaining: 5})
	startup, advisor, member, _ := fixtures()

	req, err := m.Create(context.Background(), member, startup, advisor, "intro please")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if req.Status != models.EngagementStatusSent {
		t.Fatalf("status = %s, want sent", req.Status)
	}
	if req.PublicID == "" {
		t.Fatal("expected public id")
	}
	if req.PrepRoomID != nil {
		t.Fatal("new request must not have a prep room")
	}
}

func TestCreateDenials(t *testing.T) {
	store := newMemStore()
	m := newTestMachine(store, &memQuota{remaining: 5})
	startup, advisor, startupMember, advisorMember := fixtures()

	if _, err := m.Create(context.Background(), advisorMember, advisor, advisor, ""); err == nil {
		t.Fatal("non-startup sender must be denied")
	} else if _, ok := verdict.AsDenial(err); !ok {
		t.Fatalf("want denial, got %v", err)
	}

	if _, err := m.Create(context.Background(), startupMember, startup, startup, ""); err == nil {
		t.Fatal("non-advisor recipient must be denied")
	}

	if _, err := m.Create(context.Background(), advisorMember, startup, advisor, ""); err == nil {
		t.Fatal("actor outside startup org must be denied")
	}
}

func TestCancelFromSent(t *testing.T) {
	store := newMemStore()
	m := newTestMachine(store, &memQuota{remaining: 5})
	startup, advisor, startupMember, advisorMember := fixtures()

	req, _ := m.Create(context.Background(), startupMember, startup, advisor, "")
	if err := m.Cancel(context.Background(), req, startupMember); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	row := store.get(req.ID)
	if row.Status != models.EngagementStatusCancelled {
		t.Fatalf("status = %s, want cancelled", row.Status)
	}
	if row.RespondedAt != nil {
		t.Fatal("cancel must leave responded_at unset")
	}

	// Accept after cancel is a conflict, not a denial.
	fresh, _ := store.GetByPublicID(req.PublicID)
	if err := m.Accept(context.Background(), fresh, advisorMember, advisor); err != verdict.ErrConflict {
		t.Fatalf("accept after cancel = %v, want ErrConflict", err)
	}
}

func TestAcceptHappyPath(t *testing.T) {
	store := newMemStore()
	quota := &memQuota{remaining: 1}
	m := newTestMachine(store, quota)
	startup, advisor, startupMember, advisorMember := fixtures()

	req, _ := m.Create(context.Background(), startupMember, startup, advisor, "")
	if err := m.Accept(context.Background(), req, advisorMember, advisor); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	row := store.get(req.ID)
	if row.Status != models.EngagementStatusAccepted {
		t.Fatalf("status = %s, want accepted", row.Status)
	}
	if row.PrepRoomID == nil || *row.PrepRoomID == "" {
		t.Fatal("accept must record a prep room id")
	}
	if row.RespondedAt == nil {
		t.Fatal("accept must set responded_at")
	}
	if quota.consumed != 1 {
		t.Fatalf("quota consumed = %d, want 1", quota.consumed)
	}

	// Replaying the accept is a conflict and has no double effect.
	fresh, _ := store.GetByPublicID(req.PublicID)
	if err := m.Accept(context.Background(), fresh, advisorMember, advisor); err != verdict.ErrConflict {
		t.Fatalf("second accept = %v, want ErrConflict", err)
	}
	if quota.consumed != 1 {
		t.Fatalf("replay consumed quota: %d", quota.consumed)
	}
	after := store.get(req.ID)
	if *after.PrepRoomID != *row.PrepRoomID {
		t.Fatal("replay must not reassign the prep room")
	}
}

func TestAcceptUnverifiedAdvisorDenied(t *testing.T) {
	store := newMemStore()
	quota := &memQuota{remaining: 5}
	m := newTestMachine(store, quota)
	startup, advisor, startupMember, advisorMember := fixtures()
	advisor.VerificationStatus = models.VerificationPending

	req, _ := m.Create(context.Background(), startupMember, startup, advisor, "")
	err := m.Accept(context.Background(), req, advisorMember, advisor)
	if _, ok := verdict.AsDenial(err); !ok {
		t.Fatalf("want denial, got %v", err)
	}

	row := store.get(req.ID)
	if row.Status != models.EngagementStatusSent {
		t.Fatalf("denied accept must leave status sent, got %s", row.Status)
	}
	if row.PrepRoomID != nil {
		t.Fatal("denied accept must not set prep_room_id")
	}
	if quota.consumed != 0 {
		t.Fatal("denied accept must not consume quota")
	}
}

func TestAcceptQuotaExhaustedDenied(t *testing.T) {
	store := newMemStore()
	m := newTestMachine(store, &memQuota{remaining: 0})
	startup, advisor, startupMember, advisorMember := fixtures()

	req, _ := m.Create(context.Background(), startupMember, startup, advisor, "")
	err := m.Accept(context.Background(), req, advisorMember, advisor)
	if msg, ok := verdict.AsDenial(err); !ok || msg == "" {
		t.Fatalf("want denial with message, got %v", err)
	}
	if row := store.get(req.ID); row.Status != models.EngagementStatusSent {
		t.Fatalf("status = %s, want sent", row.Status)
	}
}

func TestRejectDoesNotConsumeQuota(t *testing.T) {
	store := newMemStore()
	quota := &memQuota{remaining: 3}
	m := newTestMachine(store, quota)
	startup, advisor, startupMember, advisorMember := fixtures()

	req, _ := m.Create(context.Background(), startupMember, startup, advisor, "")
	if err := m.Reject(context.Background(), req, advisorMember, advisor); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	row := store.get(req.ID)
	if row.Status != models.EngagementStatusRejected {
		t.Fatalf("status = %s, want rejected", row.Status)
	}
	if row.RespondedAt == nil {
		t.Fatal("reject must set responded_at")
	}
	if row.PrepRoomID != nil {
		t.Fatal("reject must not create a prep room")
	}
	if quota.consumed != 0 {
		t.Fatal("reject must not consume quota")
	}
}

func TestConcurrentAcceptRejectSingleWinner(t *testing.T) {
	store := newMemStore()
	quota := &memQuota{remaining: 10}
	m := newTestMachine(store, quota)
	startup, advisor, startupMember, advisorMember := fixtures()

	req, _ := m.Create(context.Background(), startupMember, startup, advisor, "")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		r, _ := store.GetByPublicID(req.PublicID)
		errs[0] = m.Accept(context.Background(), r, advisorMember, advisor)
	}()
	go func() {
		defer wg.Done()
		r, _ := store.GetByPublicID(req.PublicID)
		errs[1] = m.Reject(context.Background(), r, advisorMember, advisor)
	}()
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else if err != verdict.ErrConflict {
			t.Fatalf("loser must observe conflict, got %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("exactly one transition must win, got %d", wins)
	}

	row := store.get(req.ID)
	if row.Status == models.EngagementStatusAccepted {
		if row.PrepRoomID == nil {
			t.Fatal("accepted row must hold prep room id")
		}
		if quota.consumed-quota.released != 1 {
			t.Fatalf("net quota = %d, want 1", quota.consumed-quota.released)
		}
	} else {
		if row.PrepRoomID != nil {
			t.Fatal("rejected row must not hold prep room id")
		}
		if quota.consumed-quota.released != 0 {
			t.Fatalf("net quota = %d, want 0 after release", quota.consumed-quota.released)
		}
	}
}

func TestQuotaRaceExactlyOneSuccess(t *testing.T) {
	quota := &memQuota{remaining: 1}
	m1 := NewMachine(newMemStore(), quota, &memRooms{}, DefaultExpiryWindow)
	m2 := NewMachine(newMemStore(), quota, &memRooms{}, DefaultExpiryWindow)
	startup, advisor, startupMember, advisorMember := fixtures()

	req1, _ := m1.Create(context.Background(), startupMember, startup, advisor, "")
	req2, _ := m2.Create(context.Background(), startupMember, startup, advisor, "")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() { defer wg.Done(); errs[0] = m1.Accept(context.Background(), req1, advisorMember, advisor) }()
	go func() { defer wg.Done(); errs[1] = m2.Accept(context.Background(), req2, advisorMember, advisor) }()
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		if _, ok := verdict.AsDenial(err); !ok {
			t.Fatalf("loser must observe quota denial, got %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("remaining=1 must yield exactly one success, got %d", wins)
	}
}

func TestExpire(t *testing.T) {
	store := newMemStore()
	m := NewMachine(store, &memQuota{remaining: 1}, &memRooms{}, 24*time.Hour)
	startup, advisor, startupMember, _ := fixtures()

	req, _ := m.Create(context.Background(), startupMember, startup, advisor, "")

	// Too young to expire.
	if err := m.Expire(context.Background(), req); err == nil {
		t.Fatal("young request must not expire")
	}

	// Age the row past the window.
	store.mu.Lock()
	store.rows[req.ID].CreatedAt = time.Now().Add(-48 * time.Hour)
	store.mu.Unlock()

	n, err := m.ExpireOpenRequests(context.Background(), 10)
	if err != nil {
		t.Fatalf("ExpireOpenRequests: %v", err)
	}
	if n != 1 {
		t.Fatalf("expired = %d, want 1", n)
	}

	row := store.get(req.ID)
	if row.Status != models.EngagementStatusExpired {
		t.Fatalf("status = %s, want expired", row.Status)
	}
	if row.RespondedAt == nil {
		t.Fatal("expire must set responded_at")
	}

	// Sweep is idempotent: nothing left to expire.
	if n, _ := m.ExpireOpenRequests(context.Background(), 10); n != 0 {
		t.Fatalf("second sweep expired %d rows", n)
	}
}

func TestPrepRoomInvariant(t *testing.T) {
	store := newMemStore()
	m := newTestMachine(store, &memQuota{remaining: 5})
	startup, advisor, startupMember, advisorMember := fixtures()

	accepted, _ := m.Create(context.Background(), startupMember, startup, advisor, "")
	_ = m.Accept(context.Background(), accepted, advisorMember, advisor)

	rejected, _ := m.Create(context.Background(), startupMember, startup, advisor, "")
	_ = m.Reject(context.Background(), rejected, advisorMember, advisor)

	cancelled, _ := m.Create(context.Background(), startupMember, startup, advisor, "")
	_ = m.Cancel(context.Background(), cancelled, startupMember)

	for id, row := range store.rows {
		hasRoom := row.PrepRoomID != nil
		isAccepted := row.Status == models.EngagementStatusAccepted
		if hasRoom != isAccepted {
			t.Fatalf("row %d violates prep-room invariant: status=%s room=%v", id, row.Status, row.PrepRoomID)
		}
	}
}
