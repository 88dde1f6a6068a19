package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/arena-hq/arena-engine/internal/tracing"
	enginerrors "github.com/arena-hq/arena-engine/pkg/errors"
	"github.com/arena-hq/arena-engine/pkg/events"
	"github.com/arena-hq/arena-engine/pkg/models"
)

// SystemActor is recorded on audit entries for system-generated transitions,
// such as sibling supersession on acceptance.
const SystemActor = "system"

// Service governs proposal lifecycle transitions. All invariants are
// enforced here, never by callers: single winner per request, terminal
// immutability, reason-required rejection, and version-checked writes.
type Service struct {
	log   ectologger.Logger
	store Store
	now   func() time.Time
}

func NewService(log ectologger.Logger, store Store) *Service {
	return &Service{
		log:   log,
		store: store,
		now:   time.Now,
	}
}

// CreateDraft opens a draft proposal for a vendor against a request. The
// request id is fixed for the proposal's lifetime.
func (s *Service) CreateDraft(ctx context.Context, requestID, vendorID, actor string) (*models.Proposal, error) {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Service.CreateDraft")
	defer span.End()

	now := s.now().UTC()
	proposal := &models.Proposal{
		ID:        uuid.New().String(),
		RequestID: requestID,
		VendorID:  vendorID,
		Status:    models.ProposalStatusDraft,
		Version:   1,
		AuditTrail: []models.AuditEntry{{
			ToStatus:  models.ProposalStatusDraft,
			Actor:     actor,
			Timestamp: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Create(ctx, proposal); err != nil {
		s.log.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"request_id": requestID,
			"vendor_id":  vendorID,
		}).Error("Failed to create draft proposal")
		return nil, err
	}

	s.log.WithContext(ctx).WithFields(map[string]any{
		"proposal_id": proposal.ID,
		"request_id":  requestID,
		"vendor_id":   vendorID,
	}).Info("Created draft proposal")

	return proposal, nil
}

// Transition moves a proposal to the target status. It validates the edge,
// the expected version, and the reason requirement before any mutation, and
// runs the whole change inside one transaction scoped to the proposal's
// request. Accepting a proposal rejects every non-terminal sibling in the
// same atomic unit.
//
// The returned events are built only after a successful commit; a failed
// transaction emits nothing.
func (s *Service) Transition(ctx context.Context, proposalID string, target models.ProposalStatus, actor string, reason *string, expectedVersion int) (*models.Proposal, []events.LifecycleEvent, error) {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Service.Transition")
	defer span.End()

	log := s.log.WithContext(ctx).WithFields(map[string]any{
		"proposal_id": proposalID,
		"target":      string(target),
		"actor":       actor,
	})

	if !target.Valid() || target == models.ProposalStatusDraft {
		return nil, nil, enginerrors.NewTransitionError(enginerrors.ErrIllegalTransition, proposalID, "", string(target))
	}

	// The request id scopes the transaction; it is immutable so reading it
	// outside the transaction is safe.
	current, err := s.store.Get(ctx, proposalID)
	if err != nil {
		return nil, nil, err
	}

	var committed []*models.Proposal

	err = s.store.WithTransaction(ctx, current.RequestID, func(ctx context.Context, tx Tx) error {
		proposal, err := tx.Get(ctx, proposalID)
		if err != nil {
			return err
		}

		// An accepter that lost the race must learn it lost, not that its
		// version is stale: supersession bumps the loser's version, so the
		// accepted-sibling check has to run before the version check.
		var siblings []*models.Proposal
		if target == models.ProposalStatusAccepted {
			siblings, err = tx.ListByRequest(ctx, proposal.RequestID)
			if err != nil {
				return err
			}
			for _, sibling := range siblings {
				if sibling.ID != proposal.ID && sibling.Status == models.ProposalStatusAccepted {
					return enginerrors.NewTransitionError(enginerrors.ErrAlreadyAccepted, proposalID, string(proposal.Status), string(target))
				}
			}
		}

		if proposal.Version != expectedVersion {
			return enginerrors.NewTransitionError(enginerrors.ErrConflict, proposalID, string(proposal.Status), string(target))
		}
		if proposal.Status.IsTerminal() || !CanTransition(proposal.Status, target) {
			return enginerrors.NewTransitionError(enginerrors.ErrIllegalTransition, proposalID, string(proposal.Status), string(target))
		}
		if target == models.ProposalStatusRejected && (reason == nil || strings.TrimSpace(*reason) == "") {
			return enginerrors.NewTransitionError(enginerrors.ErrMissingReason, proposalID, string(proposal.Status), string(target))
		}

		now := s.now().UTC()

		if target == models.ProposalStatusAccepted {
			winners, err := s.accept(ctx, tx, proposal, siblings, actor, expectedVersion, now)
			if err != nil {
				return err
			}
			committed = winners
			return nil
		}

		applyTransition(proposal, target, actor, reason, now)
		if err := tx.Save(ctx, proposal, expectedVersion); err != nil {
			return err
		}
		committed = []*models.Proposal{proposal}
		return nil
	})
	if err != nil {
		committed = nil
		log.WithError(err).Debug("Proposal transition failed")
		return nil, nil, err
	}

	// Events derive from committed state and are ordered after it.
	evs := make([]events.LifecycleEvent, 0, len(committed))
	for _, p := range committed {
		if ev, ok := events.FromTransition(p, p.UpdatedAt); ok {
			evs = append(evs, ev)
		}
	}

	log.WithFields(map[string]any{"version": committed[0].Version, "event_count": len(evs)}).Info("Proposal transitioned")

	return committed[0], evs, nil
}

// Withdraw is the vendor-initiated cancellation of a proposal, modeled as a
// rejection with a fixed reason.
func (s *Service) Withdraw(ctx context.Context, proposalID, actor string, expectedVersion int) (*models.Proposal, []events.LifecycleEvent, error) {
	reason := models.ReasonWithdrawn
	return s.Transition(ctx, proposalID, models.ProposalStatusRejected, actor, &reason, expectedVersion)
}

// accept transitions the target to Accepted and rejects every non-terminal
// sibling, all against the transaction's locked view. The caller has already
// verified no sibling is accepted; both racers of a double accept re-read
// inside their transaction, and the loser sees the winner.
func (s *Service) accept(ctx context.Context, tx Tx, proposal *models.Proposal, siblings []*models.Proposal, actor string, expectedVersion int, now time.Time) ([]*models.Proposal, error) {
	applyTransition(proposal, models.ProposalStatusAccepted, actor, nil, now)
	if err := tx.Save(ctx, proposal, expectedVersion); err != nil {
		return nil, err
	}

	committed := []*models.Proposal{proposal}

	for _, sibling := range siblings {
		if sibling.ID == proposal.ID || sibling.Status.IsTerminal() {
			continue
		}
		siblingVersion := sibling.Version
		reason := models.ReasonSupersededByAcceptance
		applyTransition(sibling, models.ProposalStatusRejected, SystemActor, &reason, now)
		if err := tx.Save(ctx, sibling, siblingVersion); err != nil {
			return nil, err
		}
		committed = append(committed, sibling)
	}

	return committed, nil
}

// applyTransition mutates the proposal in place: appends the audit entry,
// sets the status and terminal reason, and bumps the version by exactly one.
func applyTransition(p *models.Proposal, target models.ProposalStatus, actor string, reason *string, now time.Time) {
	entry := models.AuditEntry{
		FromStatus: p.Status,
		ToStatus:   target,
		Actor:      actor,
		Timestamp:  now,
	}
	if reason != nil {
		entry.Reason = *reason
	}

	p.AuditTrail = append(p.AuditTrail, entry)
	p.Status = target
	if target == models.ProposalStatusRejected {
		p.TerminalReason = reason
	}
	p.Version++
	p.UpdatedAt = now
}
