package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arena-hq/arena-engine/pkg/models"
)

func TestFromTransitionMapsStatuses(t *testing.T) {
	now := time.Now().UTC()
	reason := "superseded_by_acceptance"

	cases := []struct {
		status    models.ProposalStatus
		reason    *string
		eventType string
		expected  bool
	}{
		{models.ProposalStatusSubmitted, nil, TypeProposalSubmitted, true},
		{models.ProposalStatusAccepted, nil, TypeProposalAccepted, true},
		{models.ProposalStatusRejected, &reason, TypeProposalRejected, true},
		{models.ProposalStatusDraft, nil, "", false},
		{models.ProposalStatusUnderReview, nil, "", false},
	}

	for _, tc := range cases {
		p := &models.Proposal{
			ID:             "p1",
			RequestID:      "req-1",
			VendorID:       "v1",
			Status:         tc.status,
			Version:        3,
			TerminalReason: tc.reason,
		}

		ev, ok := FromTransition(p, now)
		assert.Equal(t, tc.expected, ok, "status %s", tc.status)
		if !tc.expected {
			continue
		}

		assert.Equal(t, tc.eventType, ev.Type)
		assert.Equal(t, "p1", ev.ProposalID)
		assert.Equal(t, "req-1", ev.RequestID)
		assert.Equal(t, "v1", ev.VendorID)
		assert.Equal(t, 3, ev.Version)
		assert.Equal(t, now, ev.OccurredAt)
		assert.Equal(t, tc.reason, ev.Reason)
	}
}

func TestRejectedEventCarriesReason(t *testing.T) {
	reason := "withdrawn"
	p := &models.Proposal{
		ID:             "p1",
		Status:         models.ProposalStatusRejected,
		TerminalReason: &reason,
	}

	ev, ok := FromTransition(p, time.Now())
	require.True(t, ok)
	require.NotNil(t, ev.Reason)
	assert.Equal(t, "withdrawn", *ev.Reason)
}
