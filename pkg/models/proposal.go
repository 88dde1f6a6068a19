package models

import "time"

// ProposalStatus is a proposal's position in its lifecycle.
type ProposalStatus string

const (
	ProposalStatusDraft       ProposalStatus = "draft"
	ProposalStatusSubmitted   ProposalStatus = "submitted"
	ProposalStatusUnderReview ProposalStatus = "under_review"
	ProposalStatusAccepted    ProposalStatus = "accepted"
	ProposalStatusRejected    ProposalStatus = "rejected"
)

// System-generated terminal reasons.
const (
	ReasonSupersededByAcceptance = "superseded_by_acceptance"
	ReasonWithdrawn              = "withdrawn"
)

// Valid reports whether the status is a known lifecycle status.
func (s ProposalStatus) Valid() bool {
	switch s {
	case ProposalStatusDraft, ProposalStatusSubmitted, ProposalStatusUnderReview,
		ProposalStatusAccepted, ProposalStatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is permitted.
func (s ProposalStatus) IsTerminal() bool {
	return s == ProposalStatusAccepted || s == ProposalStatusRejected
}

// AuditEntry is one append-only record of a status transition.
type AuditEntry struct {
	FromStatus ProposalStatus `json:"from_status"`
	ToStatus   ProposalStatus `json:"to_status"`
	Actor      string         `json:"actor"`
	Timestamp  time.Time      `json:"timestamp"`
	Reason     string         `json:"reason,omitempty"`
}

// Proposal is a vendor's proposal against a request. RequestID is fixed at
// creation and never reassigned. Version is the optimistic-concurrency token;
// it increments by exactly one on every successful transition.
type Proposal struct {
	ID             string         `json:"id" db:"id"`
	RequestID      string         `json:"request_id" db:"request_id"`
	VendorID       string         `json:"vendor_id" db:"vendor_id"`
	Status         ProposalStatus `json:"status" db:"status"`
	Version        int            `json:"version" db:"version"`
	TerminalReason *string        `json:"terminal_reason,omitempty" db:"terminal_reason"`
	AuditTrail     []AuditEntry   `json:"audit_trail" db:"-"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// Clone returns a deep copy of the proposal.
func (p *Proposal) Clone() *Proposal {
	cp := *p
	if p.TerminalReason != nil {
		reason := *p.TerminalReason
		cp.TerminalReason = &reason
	}
	cp.AuditTrail = make([]AuditEntry, len(p.AuditTrail))
	copy(cp.AuditTrail, p.AuditTrail)
	return &cp
}

// CreateDraftProposalRequest is the request for opening a draft proposal.
type CreateDraftProposalRequest struct {
	RequestID string `json:"request_id" validate:"required,uuid"`
	VendorID  string `json:"vendor_id" validate:"required,uuid"`
}

// TransitionRequest is the request body for proposal transition routes. The
// target status comes from the route, the actor from the request context.
type TransitionRequest struct {
	Reason          *string `json:"reason,omitempty"`
	ExpectedVersion int     `json:"expected_version" validate:"required,min=1"`
}
