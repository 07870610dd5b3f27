// Package engagement owns the request lifecycle between startups and
// advisors: sent is the only initial state, and accepted, rejected, cancelled
// and expired are all terminal. Every transition out of sent is a conditional
// update keyed on the expected prior status, so concurrent decisions resolve
// to exactly one winner and a conflict for everyone else.
package engagement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/foundersbridge/foundersbridge/app/models"
	"github.com/foundersbridge/foundersbridge/internal/pkg/entitlements"
	"github.com/foundersbridge/foundersbridge/internal/pkg/gating"
	"github.com/foundersbridge/foundersbridge/internal/pkg/verdict"
)

// DefaultExpiryWindow is how long a request stays open without a response
// before the background sweep expires it. Overridable via configuration.
const DefaultExpiryWindow = 14 * 24 * time.Hour

// Store persists engagement requests. Transition must be an atomic
// conditional update on the current status and return verdict.ErrConflict
// when zero rows match.
type Store interface {
	Create(req *models.EngagementRequest) error
	GetByPublicID(publicID string) (*models.EngagementRequest, error)
	Transition(id uint, expectedStatus, nextStatus string, respondedAt *time.Time, prepRoomID *string) error
	ListOpenOlderThan(cutoff time.Time, limit int) ([]models.EngagementRequest, error)
}

// Quota consumes and releases the advisor proposal-response entitlement.
// Consume must be atomic with its remaining check; Release undoes a consume
// whose transition subsequently lost the status race.
type Quota interface {
	ConsumeProposalResponse(ctx context.Context, advisorOrgID uint, now time.Time) (entitlements.GateResult, error)
	ReleaseProposalResponse(ctx context.Context, advisorOrgID uint, now time.Time) error
}

// PrepRoomCreator provisions the downstream prep room on acceptance. The
// machine records the returned id and nothing more.
type PrepRoomCreator interface {
	CreatePrepRoom(ctx context.Context, req *models.EngagementRequest) (string, error)
}

// Machine evaluates and applies engagement request transitions.
type Machine struct {
	store  Store
	quota  Quota
	rooms  PrepRoomCreator
	expiry time.Duration
	now    func() time.Time
}

// NewMachine wires the machine. A non-positive expiry falls back to
// DefaultExpiryWindow.
func NewMachine(store Store, quota Quota, rooms PrepRoomCreator, expiry time.Duration) *Machine {
	if expiry <= 0 {
		expiry = DefaultExpiryWindow
	}
	return &Machine{
		store:  store,
		quota:  quota,
		rooms:  rooms,
		expiry: expiry,
		now:    time.Now,
	}
}

// Create opens a new request in the sent state. Sending is unconditional for
// any startup toward any advisor organization; per-period send quota is the
// caller's concern, enforced before Create via the consultant-request gate.
func (m *Machine) Create(ctx context.Context, actor *models.Membership, startupOrg, advisorOrg *models.Organization, message string) (*models.EngagementRequest, error) {
	_ = ctx
	if startupOrg == nil || advisorOrg == nil {
		return nil, verdict.ConfigErr("engagement create called without organizations")
	}
	if startupOrg.Type != models.OrgTypeStartup {
		return nil, verdict.Deny("only startup organizations can send engagement requests")
	}
	if advisorOrg.Type != models.OrgTypeAdvisor {
		return nil, verdict.Deny("engagement requests can only be sent to advisor organizations")
	}
	if actor == nil || actor.OrgID != startupOrg.ID {
		return nil, verdict.Deny("you are not a member of the sending organization")
	}

	req := &models.EngagementRequest{
		PublicID:     uuid.New().String(),
		StartupOrgID: startupOrg.ID,
		AdvisorOrgID: advisorOrg.ID,
		Status:       models.EngagementStatusSent,
		Message:      message,
	}
	if err := m.store.Create(req); err != nil {
		return nil, fmt.Errorf("create engagement request: %w", err)
	}
	return req, nil
}

// Cancel moves sent -> cancelled. Only members of the sending startup may
// cancel, responded_at stays unset.
func (m *Machine) Cancel(ctx context.Context, req *models.EngagementRequest, actor *models.Membership) error {
	_ = ctx
	if actor == nil || actor.OrgID != req.StartupOrgID {
		return verdict.Deny("only the sending startup can cancel this request")
	}
	if req.IsResolved() {
		return verdict.ErrConflict
	}

	if err := m.store.Transition(req.ID, models.EngagementStatusSent, models.EngagementStatusCancelled, nil, nil); err != nil {
		return err
	}
	req.Status = models.EngagementStatusCancelled
	return nil
}

// Accept moves sent -> accepted: the advisor must be verified, a proposal
// response is consumed from its quota, and a prep room is provisioned and
// recorded in the same transition. Losing the status race releases the
// consumed quota unit and surfaces a conflict.
func (m *Machine) Accept(ctx context.Context, req *models.EngagementRequest, actor *models.Membership, advisorOrg *models.Organization) error {
	if err := m.checkAdvisorActor(req, actor, advisorOrg); err != nil {
		return err
	}
	if req.IsResolved() {
		return verdict.ErrConflict
	}

	if gate := gating.EvaluateForOrg(gating.CapabilityAdvisorIntroSend, advisorOrg); !gate.Allowed {
		return verdict.Deny("%s", gate.Message)
	}

	now := m.now()
	quota, err := m.quota.ConsumeProposalResponse(ctx, advisorOrg.ID, now)
	if err != nil {
		return fmt.Errorf("consume proposal quota: %w", err)
	}
	if !quota.Allowed {
		return verdict.Deny("%s", quota.Message)
	}

	roomID, err := m.rooms.CreatePrepRoom(ctx, req)
	if err != nil {
		m.releaseQuota(ctx, advisorOrg.ID, now)
		return fmt.Errorf("create prep room: %w", err)
	}

	if err := m.store.Transition(req.ID, models.EngagementStatusSent, models.EngagementStatusAccepted, &now, &roomID); err != nil {
		m.releaseQuota(ctx, advisorOrg.ID, now)
		return err
	}

	req.Status = models.EngagementStatusAccepted
	req.RespondedAt = &now
	req.PrepRoomID = &roomID
	return nil
}

// Reject moves sent -> rejected. Same verification precondition as Accept,
// but no quota is consumed and no prep room exists afterwards.
func (m *Machine) Reject(ctx context.Context, req *models.EngagementRequest, actor *models.Membership, advisorOrg *models.Organization) error {
	_ = ctx
	if err := m.checkAdvisorActor(req, actor, advisorOrg); err != nil {
		return err
	}
	if req.IsResolved() {
		return verdict.ErrConflict
	}

	if gate := gating.EvaluateForOrg(gating.CapabilityAdvisorIntroSend, advisorOrg); !gate.Allowed {
		return verdict.Deny("%s", gate.Message)
	}

	now := m.now()
	if err := m.store.Transition(req.ID, models.EngagementStatusSent, models.EngagementStatusRejected, &now, nil); err != nil {
		return err
	}
	req.Status = models.EngagementStatusRejected
	req.RespondedAt = &now
	return nil
}

// Expire moves sent -> expired once the request's age exceeds the expiry
// window. Not a user action; the background sweep calls it.
func (m *Machine) Expire(ctx context.Context, req *models.EngagementRequest) error {
	_ = ctx
	if req.IsResolved() {
		return verdict.ErrConflict
	}
	now := m.now()
	if req.Age(now) < m.expiry {
		return verdict.Deny("request has not reached the expiry window yet")
	}

	if err := m.store.Transition(req.ID, models.EngagementStatusSent, models.EngagementStatusExpired, &now, nil); err != nil {
		return err
	}
	req.Status = models.EngagementStatusExpired
	req.RespondedAt = &now
	return nil
}

// ExpireOpenRequests sweeps all sent requests past the expiry window and
// expires them, returning how many transitions were applied. Conflicts from
// racing responses are skipped, not errors.
func (m *Machine) ExpireOpenRequests(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	cutoff := m.now().Add(-m.expiry)
	open, err := m.store.ListOpenOlderThan(cutoff, batchSize)
	if err != nil {
		return 0, fmt.Errorf("list expirable requests: %w", err)
	}

	expired := 0
	for i := range open {
		if err := m.Expire(ctx, &open[i]); err != nil {
			if err == verdict.ErrConflict {
				continue
			}
			if _, isDenial := verdict.AsDenial(err); isDenial {
				continue
			}
			return expired, err
		}
		expired++
	}
	return expired, nil
}

// ExpiryWindow exposes the configured window, mainly for reporting.
func (m *Machine) ExpiryWindow() time.Duration {
	return m.expiry
}

func (m *Machine) checkAdvisorActor(req *models.EngagementRequest, actor *models.Membership, advisorOrg *models.Organization) error {
	if advisorOrg == nil {
		return verdict.ConfigErr("engagement transition called without advisor organization")
	}
	if advisorOrg.ID != req.AdvisorOrgID {
		return verdict.Deny("this request was not sent to your organization")
	}
	if actor == nil || actor.OrgID != req.AdvisorOrgID {
		return verdict.Deny("you are not a member of the receiving organization")
	}
	return nil
}

func (m *Machine) releaseQuota(ctx context.Context, advisorOrgID uint, now time.Time) {
	// Best effort; a failed release only under-grants for the period.
	_ = m.quota.ReleaseProposalResponse(ctx, advisorOrgID, now)
}
