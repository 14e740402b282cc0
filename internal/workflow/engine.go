package workflow

import "driveflow/pkg/domain"

// Engine holds the transition table and turn-resolution logic. It is
// stateless and safe for concurrent use; the goal is to keep every
// legality rule centralized and testable.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// stateRules is the per-state action table: one entry for whoever is the
// requester, one for whoever is the reviewer of record, and the
// administrator-override entry for an administrator not otherwise classified.
type stateRules struct {
	requester []Action
	reviewer  []Action
	admin     []Action
}

var viewOnly = []Action{ActionView}

// rulesFor is the role table, expressed as an exhaustive switch over the
// closed State enum rather than a string-keyed lookup.
func rulesFor(s State) stateRules {
	switch s {
	case StatePendingReview:
		return stateRules{
			requester: viewOnly,
			reviewer:  []Action{ActionView, ActionAccept, ActionReject, ActionReschedule},
			admin:     []Action{ActionView, ActionAccept, ActionReject, ActionReschedule, ActionCancel},
		}
	case StateReviewAccepted:
		return stateRules{
			requester: []Action{ActionView, ActionConfirm, ActionDecline},
			reviewer:  viewOnly,
			admin:     viewOnly,
		}
	case StateReviewRejected:
		return stateRules{
			requester: []Action{ActionView, ActionConfirm},
			reviewer:  viewOnly,
			admin:     viewOnly,
		}
	case StateReviewRescheduled:
		// Alternation logic resolves the parties before this table is
		// consulted; these entries cover identities outside the loop.
		return stateRules{
			requester: viewOnly,
			reviewer:  viewOnly,
			admin:     []Action{ActionView, ActionCancel},
		}
	case StateAwaitingConfirmation:
		return stateRules{
			requester: []Action{ActionView, ActionConfirm, ActionDecline},
			reviewer:  viewOnly,
			admin:     viewOnly,
		}
	case StateApproved:
		return stateRules{
			requester: []Action{ActionView, ActionReschedule, ActionCancel},
			reviewer:  []Action{ActionView, ActionReschedule, ActionCancel},
			admin:     []Action{ActionView, ActionReschedule, ActionCancel},
		}
	case StateRejected:
		return stateRules{
			requester: viewOnly,
			reviewer:  viewOnly,
			admin:     []Action{ActionView, ActionCancel},
		}
	case StateCancelled:
		return stateRules{
			requester: viewOnly,
			reviewer:  viewOnly,
			admin:     []Action{ActionView, ActionClose},
		}
	case StateClosed:
		return stateRules{requester: viewOnly, reviewer: viewOnly, admin: viewOnly}
	default:
		// NormalizeState collapses unknown inputs before lookup, so this
		// arm only fires on a state bypassing normalization.
		return rulesFor(StatePendingReview)
	}
}

// confirmationGated reports whether the state is in the confirmation gate:
// only the requester may act further, the deciding reviewer is restricted to
// view.
func confirmationGated(s State) bool {
	switch s {
	case StateReviewAccepted, StateReviewRejected, StateAwaitingConfirmation:
		return true
	default:
		return false
	}
}

// AllowedActions returns the ordered legal action set for the acting identity
// against the snapshot. Rules apply in strict precedence:
//
//  1. reschedule alternation: the live proposer is restricted to view, the
//     counterparty gets the ratification pair for the proposer's side;
//  2. confirmation gate: requester-only states, with delegated confirmation
//     for an administrator reviewer of record on a coordinator-created
//     request;
//  3. administrator override: an unclassified administrator receives the
//     admin table entry (every assignment policy permits override);
//  4. default: requester and reviewer entries by party resolution, view
//     otherwise.
func (e *Engine) AllowedActions(snapshot *Request, actorID domain.PartyID, actorRole domain.Role) []Action {
	state := NormalizeState(string(snapshot.State))
	role := domain.NormalizeRole(string(actorRole))
	parties := ResolveParties(snapshot)

	if state == StateReviewRescheduled && snapshot.Proposal != nil {
		switch {
		case parties.IsProposer(actorID):
			// A proposer never approves their own proposal, regardless of
			// role or table entries.
			return viewOnly
		case actorID == parties.Counterparty():
			if parties.ProposerIsReviewerSide() {
				return []Action{ActionView, ActionAccept, ActionReschedule}
			}
			return []Action{ActionView, ActionConfirm, ActionReschedule}
		case role == domain.RoleAdministrator:
			return rulesFor(state).admin
		default:
			return viewOnly
		}
	}

	rules := rulesFor(state)

	if confirmationGated(state) {
		if parties.IsRequester(actorID) {
			return rules.requester
		}
		// Delegated confirmation: an administrator reviewer of record on a
		// coordinator-created request inherits the requester's rights, since
		// no higher authority exists to counter-confirm their own review.
		if role == domain.RoleAdministrator && parties.IsReviewer(actorID) &&
			domain.NormalizeRole(string(snapshot.CreatedByRole)) == domain.RoleCoordinator {
			return rules.requester
		}
		return viewOnly
	}

	switch {
	case parties.IsRequester(actorID):
		return rules.requester
	case parties.IsReviewer(actorID):
		return rules.reviewer
	case role == domain.RoleAdministrator:
		return rules.admin
	default:
		return viewOnly
	}
}

// Allowed reports whether the action appears in the actor's legal set. The
// orchestrator's permission check and the read-only projection both go
// through this single path.
func (e *Engine) Allowed(snapshot *Request, actorID domain.PartyID, actorRole domain.Role, action Action) bool {
	for _, a := range e.AllowedActions(snapshot, actorID, actorRole) {
		if a == action {
			return true
		}
	}
	return false
}

// NextState is the pure transition lookup. ok is false for actions with no
// defined next state; callers must have validated legality via
// AllowedActions first.
func (e *Engine) NextState(state State, action Action) (State, bool) {
	switch NormalizeState(string(state)) {
	case StatePendingReview:
		switch action {
		case ActionAccept:
			return StateReviewAccepted, true
		case ActionReject:
			return StateReviewRejected, true
		case ActionReschedule:
			return StateReviewRescheduled, true
		case ActionCancel:
			return StateCancelled, true
		}
	case StateReviewAccepted:
		switch action {
		case ActionConfirm:
			return StateAwaitingConfirmation, true
		case ActionDecline:
			return StateCancelled, true
		}
	case StateReviewRejected:
		if action == ActionConfirm {
			return StateRejected, true
		}
	case StateReviewRescheduled:
		switch action {
		case ActionAccept, ActionConfirm:
			return StateReviewAccepted, true
		case ActionReschedule:
			return StateReviewRescheduled, true
		case ActionCancel:
			return StateCancelled, true
		}
	case StateAwaitingConfirmation:
		switch action {
		case ActionConfirm:
			return StateApproved, true
		case ActionDecline:
			return StateCancelled, true
		}
	case StateApproved:
		switch action {
		case ActionReschedule:
			return StateReviewRescheduled, true
		case ActionCancel:
			return StateCancelled, true
		}
	case StateRejected:
		if action == ActionCancel {
			return StateCancelled, true
		}
	case StateCancelled:
		if action == ActionClose {
			return StateClosed, true
		}
	case StateClosed:
		// Terminal: no transitions.
	}
	return "", false
}

// ActiveResponder derives whose turn it is from state plus party resolution.
// Nil in terminal states.
func (e *Engine) ActiveResponder(snapshot *Request) *Responder {
	state := NormalizeState(string(snapshot.State))
	parties := ResolveParties(snapshot)

	switch {
	case state.IsTerminal():
		return nil
	case state == StateReviewRescheduled && snapshot.Proposal != nil:
		return &Responder{ID: parties.Counterparty(), Relationship: RelationshipProposerCounterparty}
	case confirmationGated(state):
		return &Responder{ID: parties.RequesterID, Relationship: RelationshipRequester}
	default:
		return &Responder{ID: parties.ReviewerID, Relationship: RelationshipReviewer}
	}
}
