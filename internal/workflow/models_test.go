package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driveflow/pkg/domain"
)

func TestNormalizeState(t *testing.T) {
	cases := []struct {
		label string
		want  State
	}{
		{"pending_review", StatePendingReview},
		{"PENDING_REVIEW", StatePendingReview},
		{"waiting", StatePendingReview},
		{"review_accepted", StateReviewAccepted},
		{"ACCEPTED_BY_REVIEWER", StateReviewAccepted},
		{"review_rejected", StateReviewRejected},
		{"rejected", StateRejected},
		{"declined", StateRejected},
		{"review_rescheduled", StateReviewRescheduled},
		{"RESCHEDULED_BY_USER", StateReviewRescheduled},
		{"awaiting_confirmation", StateAwaitingConfirmation},
		{"confirm_pending", StateAwaitingConfirmation},
		{"approved", StateApproved},
		{"cancelled", StateCancelled},
		{"canceled", StateCancelled},
		{"closed", StateClosed},
	}
	for _, tc := range cases {
		t.Run(tc.label, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeState(tc.label))
		})
	}

	t.Run("unrecognized strings fall back to pending review", func(t *testing.T) {
		assert.Equal(t, StatePendingReview, NormalizeState("archived_v0"))
		assert.Equal(t, StatePendingReview, NormalizeState(""))
	})
}

func TestStateIsTerminal(t *testing.T) {
	terminal := map[State]bool{
		StateApproved:  true,
		StateRejected:  true,
		StateCancelled: true,
		StateClosed:    true,
	}
	for _, s := range States {
		assert.Equal(t, terminal[s], s.IsTerminal(), string(s))
	}
}

func TestParseAction(t *testing.T) {
	a, ok := ParseAction("RESCHEDULE")
	require.True(t, ok)
	assert.Equal(t, ActionReschedule, a)

	_, ok = ParseAction("approve")
	assert.False(t, ok)
}

func TestRequestClone(t *testing.T) {
	now := time.Now()
	beneficiary := domain.NewPartyID()
	req := &Request{
		ID:            domain.NewRequestID(),
		State:         StateReviewRescheduled,
		Requester:     Party{ID: domain.NewPartyID(), Role: domain.RoleCoordinator, Authority: 2},
		Reviewer:      ReviewerAssignment{Party: Party{ID: beneficiary, Role: domain.RoleStakeholder, Authority: 1}, AutoAssigned: true},
		CreatedByRole: domain.RoleCoordinator,
		BeneficiaryID: &beneficiary,
		Proposal: &RescheduleProposal{
			ProposedBy:     beneficiary,
			ProposedByRole: domain.RoleStakeholder,
			ProposedStart:  now.Add(48 * time.Hour),
		},
		Decisions: []DecisionRecord{{Type: ActionReschedule, ActorID: beneficiary, At: now}},
	}

	clone := req.Clone()
	require.Equal(t, req, clone)

	// Mutating the clone must not leak into the original.
	clone.Decisions = append(clone.Decisions, DecisionRecord{Type: ActionConfirm})
	clone.Proposal.Note = "moved to the weekend"
	*clone.BeneficiaryID = domain.NewPartyID()

	assert.Len(t, req.Decisions, 1)
	assert.Empty(t, req.Proposal.Note)
	assert.Equal(t, beneficiary, *req.BeneficiaryID)
}
