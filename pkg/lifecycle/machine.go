// Package lifecycle implements the proposal state machine and its
// concurrency controller. The single-winner invariant lives here: at most one
// proposal per request is ever accepted, enforced inside one transaction.
package lifecycle

import "github.com/arena-hq/arena-engine/pkg/models"

// transitions is the legal edge table. Accepted and Rejected are terminal;
// acceptance is only reachable from formally received proposals.
var transitions = map[models.ProposalStatus][]models.ProposalStatus{
	models.ProposalStatusDraft:       {models.ProposalStatusSubmitted},
	models.ProposalStatusSubmitted:   {models.ProposalStatusUnderReview, models.ProposalStatusRejected, models.ProposalStatusAccepted},
	models.ProposalStatusUnderReview: {models.ProposalStatusRejected, models.ProposalStatusAccepted},
	models.ProposalStatusAccepted:    {},
	models.ProposalStatusRejected:    {},
}

// CanTransition reports whether from → to is a legal edge.
func CanTransition(from, to models.ProposalStatus) bool {
	for _, target := range transitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// LegalTargets returns the statuses reachable from the given status.
func LegalTargets(from models.ProposalStatus) []models.ProposalStatus {
	targets := transitions[from]
	out := make([]models.ProposalStatus, len(targets))
	copy(out, targets)
	return out
}
