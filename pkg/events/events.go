// Package events defines the lifecycle event model and its publisher
// boundary. Events are built from committed state only; the lifecycle service
// returns them and the caller hands them to a Publisher after commit.
package events

import (
	"context"
	"time"

	"github.com/arena-hq/arena-engine/pkg/models"
)

// Lifecycle event types.
const (
	TypeProposalSubmitted = "proposal.submitted"
	TypeProposalAccepted  = "proposal.accepted"
	TypeProposalRejected  = "proposal.rejected"
)

// LifecycleEvent describes a committed proposal transition for delivery to
// the notification layer. Delivery is at-least-once; downstream consumers
// dedup on proposal id plus event type.
type LifecycleEvent struct {
	Type       string    `json:"type"`
	ProposalID string    `json:"proposal_id"`
	RequestID  string    `json:"request_id"`
	VendorID   string    `json:"vendor_id"`
	Reason     *string   `json:"reason,omitempty"`
	Version    int       `json:"version"`
	OccurredAt time.Time `json:"occurred_at"`
}

// FromTransition builds the event for a committed transition, or false when
// the transition has no externally visible event.
func FromTransition(p *models.Proposal, occurredAt time.Time) (LifecycleEvent, bool) {
	var eventType string
	switch p.Status {
	case models.ProposalStatusSubmitted:
		eventType = TypeProposalSubmitted
	case models.ProposalStatusAccepted:
		eventType = TypeProposalAccepted
	case models.ProposalStatusRejected:
		eventType = TypeProposalRejected
	default:
		return LifecycleEvent{}, false
	}

	return LifecycleEvent{
		Type:       eventType,
		ProposalID: p.ID,
		RequestID:  p.RequestID,
		VendorID:   p.VendorID,
		Reason:     p.TerminalReason,
		Version:    p.Version,
		OccurredAt: occurredAt,
	}, true
}

// Publisher delivers lifecycle events to the external notification layer.
type Publisher interface {
	Publish(ctx context.Context, event LifecycleEvent) error
}
