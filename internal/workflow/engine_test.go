package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driveflow/pkg/domain"
)

type fixture struct {
	admin       domain.PartyID
	coordinator domain.PartyID
	stakeholder domain.PartyID
	outsider    domain.PartyID
}

func newFixture() fixture {
	return fixture{
		admin:       domain.NewPartyID(),
		coordinator: domain.NewPartyID(),
		stakeholder: domain.NewPartyID(),
		outsider:    domain.NewPartyID(),
	}
}

// stakeholderRequest is the plain case: a stakeholder requests, a
// coordinator reviews.
func (f fixture) stakeholderRequest(state State) *Request {
	return &Request{
		ID:            domain.NewRequestID(),
		State:         state,
		Requester:     Party{ID: f.stakeholder, Role: domain.RoleStakeholder, Authority: 1},
		Reviewer:      ReviewerAssignment{Party: Party{ID: f.coordinator, Role: domain.RoleCoordinator, Authority: 2}, AutoAssigned: true},
		CreatedByRole: domain.RoleStakeholder,
	}
}

// onBehalfRequest is the coordinator-on-behalf-of case: coordinator creates,
// the named beneficiary becomes the reviewer of record.
func (f fixture) onBehalfRequest(state State) *Request {
	beneficiary := f.stakeholder
	return &Request{
		ID:            domain.NewRequestID(),
		State:         state,
		Requester:     Party{ID: f.coordinator, Role: domain.RoleCoordinator, Authority: 2},
		Reviewer:      ReviewerAssignment{Party: Party{ID: beneficiary, Role: domain.RoleStakeholder, Authority: 1}, AutoAssigned: true},
		CreatedByRole: domain.RoleCoordinator,
		BeneficiaryID: &beneficiary,
	}
}

// coordinatorRequest has an administrator as reviewer of record, creator is
// the coordinator tier. This is the delegated-confirmation shape.
func (f fixture) coordinatorRequest(state State) *Request {
	return &Request{
		ID:            domain.NewRequestID(),
		State:         state,
		Requester:     Party{ID: f.coordinator, Role: domain.RoleCoordinator, Authority: 2},
		Reviewer:      ReviewerAssignment{Party: Party{ID: f.admin, Role: domain.RoleAdministrator, Authority: 3}, AutoAssigned: true},
		CreatedByRole: domain.RoleCoordinator,
	}
}

func TestAllowedActions_Exhaustiveness(t *testing.T) {
	// For every canonical state and every canonical role the set is
	// non-empty and contains at least view.
	engine := NewEngine()
	f := newFixture()
	roles := []domain.Role{domain.RoleAdministrator, domain.RoleCoordinator, domain.RoleStakeholder}

	for _, state := range States {
		for _, role := range roles {
			actions := engine.AllowedActions(f.stakeholderRequest(state), f.outsider, role)
			require.NotEmpty(t, actions, "%s/%s", state, role)
			assert.Contains(t, actions, ActionView, "%s/%s", state, role)
		}
	}
}

func TestAllowedActions_PendingReview(t *testing.T) {
	engine := NewEngine()
	f := newFixture()
	req := f.stakeholderRequest(StatePendingReview)

	t.Run("reviewer decides", func(t *testing.T) {
		assert.Equal(t,
			[]Action{ActionView, ActionAccept, ActionReject, ActionReschedule},
			engine.AllowedActions(req, f.coordinator, domain.RoleCoordinator))
	})

	t.Run("requester can only view", func(t *testing.T) {
		assert.Equal(t, []Action{ActionView},
			engine.AllowedActions(req, f.stakeholder, domain.RoleStakeholder))
	})

	t.Run("unrelated administrator overrides", func(t *testing.T) {
		assert.Equal(t,
			[]Action{ActionView, ActionAccept, ActionReject, ActionReschedule, ActionCancel},
			engine.AllowedActions(req, f.admin, domain.RoleAdministrator))
	})

	t.Run("outsider can only view", func(t *testing.T) {
		assert.Equal(t, []Action{ActionView},
			engine.AllowedActions(req, f.outsider, domain.RoleStakeholder))
	})
}

func TestAllowedActions_BeneficiaryIsReviewerOfRecord(t *testing.T) {
	// Request created by coordinator C1 naming beneficiary S1: S1 reviews,
	// C1 is the requester and the confirmation gate has not opened yet.
	engine := NewEngine()
	f := newFixture()
	req := f.onBehalfRequest(StatePendingReview)

	assert.Equal(t,
		[]Action{ActionView, ActionAccept, ActionReject, ActionReschedule},
		engine.AllowedActions(req, f.stakeholder, domain.RoleStakeholder))

	assert.Equal(t, []Action{ActionView},
		engine.AllowedActions(req, f.coordinator, domain.RoleCoordinator))
}

func TestAllowedActions_ConfirmationGate(t *testing.T) {
	engine := NewEngine()
	f := newFixture()

	t.Run("requester confirms or declines an accepted review", func(t *testing.T) {
		req := f.stakeholderRequest(StateReviewAccepted)
		assert.Equal(t, []Action{ActionView, ActionConfirm, ActionDecline},
			engine.AllowedActions(req, f.stakeholder, domain.RoleStakeholder))
	})

	t.Run("the deciding reviewer is restricted to view", func(t *testing.T) {
		req := f.stakeholderRequest(StateReviewAccepted)
		assert.Equal(t, []Action{ActionView},
			engine.AllowedActions(req, f.coordinator, domain.RoleCoordinator))
	})

	t.Run("unrelated administrator does not pierce the gate", func(t *testing.T) {
		req := f.stakeholderRequest(StateAwaitingConfirmation)
		assert.Equal(t, []Action{ActionView},
			engine.AllowedActions(req, f.admin, domain.RoleAdministrator))
	})

	t.Run("requester acknowledges a rejection", func(t *testing.T) {
		req := f.stakeholderRequest(StateReviewRejected)
		assert.Equal(t, []Action{ActionView, ActionConfirm},
			engine.AllowedActions(req, f.stakeholder, domain.RoleStakeholder))
	})
}

func TestAllowedActions_DelegatedConfirmation(t *testing.T) {
	// Administrator reviewer of record on a coordinator-created request
	// inherits the requester's confirmation rights: no higher authority
	// exists to counter-confirm an administrator's own review.
	engine := NewEngine()
	f := newFixture()
	req := f.coordinatorRequest(StateReviewAccepted)

	adminActions := engine.AllowedActions(req, f.admin, domain.RoleAdministrator)
	assert.Equal(t, []Action{ActionView, ActionConfirm, ActionDecline}, adminActions)

	// The coordinator requester keeps their own confirmation rights too.
	assert.Equal(t, []Action{ActionView, ActionConfirm, ActionDecline},
		engine.AllowedActions(req, f.coordinator, domain.RoleCoordinator))
}

func TestAllowedActions_RescheduleLoop(t *testing.T) {
	engine := NewEngine()
	f := newFixture()

	withProposal := func(proposer domain.PartyID, role domain.Role) *Request {
		req := f.stakeholderRequest(StateReviewRescheduled)
		req.Proposal = &RescheduleProposal{
			ProposedBy:     proposer,
			ProposedByRole: role,
			ProposedStart:  time.Now().Add(72 * time.Hour),
		}
		return req
	}

	t.Run("proposer is restricted to view regardless of role", func(t *testing.T) {
		req := withProposal(f.coordinator, domain.RoleCoordinator)
		assert.Equal(t, []Action{ActionView},
			engine.AllowedActions(req, f.coordinator, domain.RoleCoordinator))

		// Even an administrator proposer is excluded from approving their
		// own proposal.
		req2 := f.stakeholderRequest(StateReviewRescheduled)
		req2.Reviewer = ReviewerAssignment{Party: Party{ID: f.admin, Role: domain.RoleAdministrator, Authority: 3}}
		req2.Proposal = &RescheduleProposal{ProposedBy: f.admin, ProposedByRole: domain.RoleAdministrator}
		assert.Equal(t, []Action{ActionView},
			engine.AllowedActions(req2, f.admin, domain.RoleAdministrator))
	})

	t.Run("reviewer proposed: requester may accept or counter", func(t *testing.T) {
		req := withProposal(f.coordinator, domain.RoleCoordinator)
		assert.Equal(t, []Action{ActionView, ActionAccept, ActionReschedule},
			engine.AllowedActions(req, f.stakeholder, domain.RoleStakeholder))
	})

	t.Run("requester proposed: reviewer may confirm or counter", func(t *testing.T) {
		req := withProposal(f.stakeholder, domain.RoleStakeholder)
		assert.Equal(t, []Action{ActionView, ActionConfirm, ActionReschedule},
			engine.AllowedActions(req, f.coordinator, domain.RoleCoordinator))
	})

	t.Run("outsiders stay view-only inside the loop", func(t *testing.T) {
		req := withProposal(f.coordinator, domain.RoleCoordinator)
		assert.Equal(t, []Action{ActionView},
			engine.AllowedActions(req, f.outsider, domain.RoleStakeholder))
	})
}

func TestAllowedActions_IdempotentRead(t *testing.T) {
	engine := NewEngine()
	f := newFixture()
	req := f.onBehalfRequest(StateReviewRescheduled)
	req.Proposal = &RescheduleProposal{ProposedBy: f.stakeholder, ProposedByRole: domain.RoleStakeholder}

	first := engine.AllowedActions(req, f.coordinator, domain.RoleCoordinator)
	second := engine.AllowedActions(req, f.coordinator, domain.RoleCoordinator)
	assert.Equal(t, first, second, "no hidden state between calls")
}

func TestAllowedActions_LegacyInputs(t *testing.T) {
	engine := NewEngine()
	f := newFixture()

	t.Run("legacy status spellings are normalized before lookup", func(t *testing.T) {
		req := f.stakeholderRequest(State("ACCEPTED_BY_REVIEWER"))
		assert.Equal(t, []Action{ActionView, ActionConfirm, ActionDecline},
			engine.AllowedActions(req, f.stakeholder, domain.RoleStakeholder))
	})

	t.Run("legacy role labels are normalized", func(t *testing.T) {
		req := f.stakeholderRequest(StatePendingReview)
		assert.Equal(t,
			[]Action{ActionView, ActionAccept, ActionReject, ActionReschedule, ActionCancel},
			engine.AllowedActions(req, f.admin, domain.Role("SYSTEM_ADMIN")))
	})

	t.Run("unknown role label surfaces as view-only", func(t *testing.T) {
		req := f.stakeholderRequest(StatePendingReview)
		assert.Equal(t, []Action{ActionView},
			engine.AllowedActions(req, f.outsider, domain.Role("auditor")))
	})
}

func TestNextState(t *testing.T) {
	engine := NewEngine()

	legal := []struct {
		from   State
		action Action
		to     State
	}{
		{StatePendingReview, ActionAccept, StateReviewAccepted},
		{StatePendingReview, ActionReject, StateReviewRejected},
		{StatePendingReview, ActionReschedule, StateReviewRescheduled},
		{StatePendingReview, ActionCancel, StateCancelled},
		{StateReviewAccepted, ActionConfirm, StateAwaitingConfirmation},
		{StateReviewAccepted, ActionDecline, StateCancelled},
		{StateReviewRejected, ActionConfirm, StateRejected},
		{StateReviewRescheduled, ActionAccept, StateReviewAccepted},
		{StateReviewRescheduled, ActionConfirm, StateReviewAccepted},
		{StateReviewRescheduled, ActionReschedule, StateReviewRescheduled},
		{StateAwaitingConfirmation, ActionConfirm, StateApproved},
		{StateAwaitingConfirmation, ActionDecline, StateCancelled},
		{StateApproved, ActionReschedule, StateReviewRescheduled},
		{StateApproved, ActionCancel, StateCancelled},
		{StateRejected, ActionCancel, StateCancelled},
		{StateCancelled, ActionClose, StateClosed},
	}
	for _, tc := range legal {
		next, ok := engine.NextState(tc.from, tc.action)
		require.True(t, ok, "%s + %s", tc.from, tc.action)
		assert.Equal(t, tc.to, next, "%s + %s", tc.from, tc.action)
	}

	t.Run("view never transitions", func(t *testing.T) {
		for _, s := range States {
			_, ok := engine.NextState(s, ActionView)
			assert.False(t, ok, string(s))
		}
	})

	t.Run("closed is terminal", func(t *testing.T) {
		for _, a := range []Action{ActionAccept, ActionConfirm, ActionCancel, ActionClose, ActionReschedule} {
			_, ok := engine.NextState(StateClosed, a)
			assert.False(t, ok, string(a))
		}
	})

	t.Run("illegal pairs are undefined", func(t *testing.T) {
		_, ok := engine.NextState(StatePendingReview, ActionConfirm)
		assert.False(t, ok)
		_, ok = engine.NextState(StateApproved, ActionAccept)
		assert.False(t, ok)
	})
}

func TestActiveResponder(t *testing.T) {
	engine := NewEngine()
	f := newFixture()

	t.Run("reviewer holds the turn in pending review", func(t *testing.T) {
		r := engine.ActiveResponder(f.stakeholderRequest(StatePendingReview))
		require.NotNil(t, r)
		assert.Equal(t, f.coordinator, r.ID)
		assert.Equal(t, RelationshipReviewer, r.Relationship)
	})

	t.Run("requester holds the turn behind the confirmation gate", func(t *testing.T) {
		r := engine.ActiveResponder(f.stakeholderRequest(StateReviewAccepted))
		require.NotNil(t, r)
		assert.Equal(t, f.stakeholder, r.ID)
		assert.Equal(t, RelationshipRequester, r.Relationship)
	})

	t.Run("counterparty holds the turn in the reschedule loop", func(t *testing.T) {
		req := f.stakeholderRequest(StateReviewRescheduled)
		req.Proposal = &RescheduleProposal{ProposedBy: f.coordinator, ProposedByRole: domain.RoleCoordinator}
		r := engine.ActiveResponder(req)
		require.NotNil(t, r)
		assert.Equal(t, f.stakeholder, r.ID)
		assert.Equal(t, RelationshipProposerCounterparty, r.Relationship)
	})

	t.Run("nil in terminal states", func(t *testing.T) {
		for _, s := range []State{StateApproved, StateRejected, StateCancelled, StateClosed} {
			assert.Nil(t, engine.ActiveResponder(f.stakeholderRequest(s)), string(s))
		}
	})
}

func TestResolveParties_NeverBothSides(t *testing.T) {
	f := newFixture()
	req := f.onBehalfRequest(StatePendingReview)
	p := ResolveParties(req)

	// The beneficiary is classified as reviewer of record, not requester.
	assert.True(t, p.IsReviewer(f.stakeholder))
	assert.False(t, p.IsRequester(f.stakeholder))

	assert.True(t, p.IsRequester(f.coordinator))
	assert.False(t, p.IsReviewer(f.coordinator))
}
