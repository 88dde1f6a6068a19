package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProposalStatusValid(t *testing.T) {
	assert.True(t, ProposalStatusDraft.Valid())
	assert.True(t, ProposalStatusAccepted.Valid())
	assert.False(t, ProposalStatus("archived").Valid())
	assert.False(t, ProposalStatus("").Valid())
}

func TestProposalStatusIsTerminal(t *testing.T) {
	assert.True(t, ProposalStatusAccepted.IsTerminal())
	assert.True(t, ProposalStatusRejected.IsTerminal())
	assert.False(t, ProposalStatusDraft.IsTerminal())
	assert.False(t, ProposalStatusSubmitted.IsTerminal())
	assert.False(t, ProposalStatusUnderReview.IsTerminal())
}

func TestProposalCloneIsDeep(t *testing.T) {
	reason := "withdrawn"
	original := &Proposal{
		ID:             "p1",
		Status:         ProposalStatusRejected,
		Version:        2,
		TerminalReason: &reason,
		AuditTrail: []AuditEntry{
			{ToStatus: ProposalStatusDraft, Actor: "vendor-user"},
		},
	}

	clone := original.Clone()
	*clone.TerminalReason = "changed"
	clone.AuditTrail[0].Actor = "someone-else"
	clone.AuditTrail = append(clone.AuditTrail, AuditEntry{Actor: "extra"})

	assert.Equal(t, "withdrawn", *original.TerminalReason)
	assert.Equal(t, "vendor-user", original.AuditTrail[0].Actor)
	assert.Len(t, original.AuditTrail, 1)
}
