// Package workflow is the request lifecycle engine: the canonical state and
// action enums, the transition table, and the turn-resolution rules deciding
// which actions are legal for an acting identity. Everything here is pure;
// persistence and transport live elsewhere.
package workflow

import (
	"strings"
	"time"

	"driveflow/pkg/domain"
)

// State is the canonical lifecycle state of a request. External status
// strings are normalized onto this closed set before any decision is made.
type State string

const (
	StatePendingReview        State = "pending_review"
	StateReviewAccepted       State = "review_accepted"
	StateReviewRejected       State = "review_rejected"
	StateReviewRescheduled    State = "review_rescheduled"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateApproved             State = "approved"
	StateRejected             State = "rejected"
	StateCancelled            State = "cancelled"
	StateClosed               State = "closed"
)

// States lists every canonical state, initial first.
var States = []State{
	StatePendingReview,
	StateReviewAccepted,
	StateReviewRejected,
	StateReviewRescheduled,
	StateAwaitingConfirmation,
	StateApproved,
	StateRejected,
	StateCancelled,
	StateClosed,
}

// NormalizeState maps historical and legacy status spellings onto the
// canonical set. Matching is case-insensitive and substring-tolerant.
// Unrecognized strings fall back to pending-review semantics; the fallback is
// deliberate (it keeps decades-old rows actionable) but callers at the
// persistence boundary should log when it fires.
func NormalizeState(label string) State {
	l := strings.ToLower(strings.TrimSpace(label))
	if s := State(l); isCanonicalState(s) {
		return s
	}
	switch {
	case strings.Contains(l, "resched"):
		return StateReviewRescheduled
	case strings.Contains(l, "await"), strings.Contains(l, "confirm"):
		return StateAwaitingConfirmation
	case strings.Contains(l, "close"):
		return StateClosed
	case strings.Contains(l, "cancel"):
		return StateCancelled
	case strings.Contains(l, "approve"):
		return StateApproved
	case strings.Contains(l, "accept"):
		return StateReviewAccepted
	case strings.Contains(l, "review") && strings.Contains(l, "reject"):
		return StateReviewRejected
	case strings.Contains(l, "reject"), strings.Contains(l, "decline"):
		return StateRejected
	default:
		return StatePendingReview
	}
}

func isCanonicalState(s State) bool {
	for _, known := range States {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the state accepts no further responder turn.
// Cancelled requests still accept an administrator close for archival, but no
// party holds the turn.
func (s State) IsTerminal() bool {
	switch s {
	case StateApproved, StateRejected, StateCancelled, StateClosed:
		return true
	default:
		return false
	}
}

func (s State) String() string { return string(s) }

// Action is a workflow action a party can take on a request.
type Action string

const (
	ActionView       Action = "view"
	ActionAccept     Action = "accept"
	ActionReject     Action = "reject"
	ActionReschedule Action = "reschedule"
	ActionConfirm    Action = "confirm"
	ActionDecline    Action = "decline"
	ActionCancel     Action = "cancel"
	ActionClose      Action = "close"
)

// ParseAction validates an action string.
func ParseAction(s string) (Action, bool) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionView, ActionAccept, ActionReject, ActionReschedule,
		ActionConfirm, ActionDecline, ActionCancel, ActionClose:
		return a, true
	default:
		return "", false
	}
}

func (a Action) String() string { return string(a) }

// Party is an identity snapshot taken when it was attached to the request.
type Party struct {
	ID        domain.PartyID `json:"id"`
	Role      domain.Role    `json:"role"`
	Authority int            `json:"authority"`
}

// ReviewerAssignment is the reviewer of record plus assignment provenance.
type ReviewerAssignment struct {
	Party
	AutoAssigned bool            `json:"auto_assigned"`
	OverriddenBy *domain.PartyID `json:"overridden_by,omitempty"`
	OverriddenAt *time.Time      `json:"overridden_at,omitempty"`
}

// RescheduleProposal is the live counter-offer in the reschedule loop. The
// proposer identity drives turn resolution: a proposer cannot approve their
// own proposal.
type RescheduleProposal struct {
	ProposedBy     domain.PartyID `json:"proposed_by"`
	ProposedByRole domain.Role    `json:"proposed_by_role"`
	ProposedStart  time.Time      `json:"proposed_start"`
	ProposedEnd    time.Time      `json:"proposed_end"`
	Note           string         `json:"note,omitempty"`
}

// DecisionRecord is one entry of the append-only decision history.
type DecisionRecord struct {
	Type    Action         `json:"type"`
	ActorID domain.PartyID `json:"actor_id"`
	Role    domain.Role    `json:"role"`
	At      time.Time      `json:"at"`
}

// Relationship tags why an identity currently holds the turn.
type Relationship string

const (
	RelationshipRequester            Relationship = "requester"
	RelationshipReviewer             Relationship = "reviewer"
	RelationshipProposerCounterparty Relationship = "proposer-counterparty"
)

// Responder names whose turn it is.
type Responder struct {
	ID           domain.PartyID `json:"id"`
	Relationship Relationship   `json:"relationship"`
}

// LastAction caches the most recent action for debugging and migration
// tooling. It is not authoritative; the decision history is.
type LastAction struct {
	Action  Action         `json:"action"`
	ActorID domain.PartyID `json:"actor_id"`
	At      time.Time      `json:"at"`
}

// Request is the central entity: a scheduled drive awaiting multi-party
// approval. The engine reads it as an immutable snapshot; only the
// orchestrator mutates it, through engine-validated transitions.
type Request struct {
	ID    domain.RequestID `json:"id"`
	State State            `json:"state"`

	Requester Party              `json:"requester"`
	Reviewer  ReviewerAssignment `json:"reviewer"`

	// CreatedByRole is the role tier that created the request; it decides
	// the assignment policy row and the delegated-confirmation rule.
	CreatedByRole domain.Role `json:"created_by_role"`
	// CoordinatorID is the coordinator explicitly named at creation, if any.
	CoordinatorID *domain.PartyID `json:"coordinator_id,omitempty"`
	// BeneficiaryID is the stakeholder the drive serves when a coordinator
	// created the request on their behalf. Presence makes the beneficiary
	// the reviewer of record.
	BeneficiaryID *domain.PartyID `json:"beneficiary_id,omitempty"`

	ScheduledStart time.Time `json:"scheduled_start"`
	ScheduledEnd   time.Time `json:"scheduled_end"`

	Proposal        *RescheduleProposal `json:"proposal,omitempty"`
	Decisions       []DecisionRecord    `json:"decisions"`
	ActiveResponder *Responder          `json:"active_responder,omitempty"`
	LastAction      *LastAction         `json:"last_action,omitempty"`

	// Revision is the optimistic concurrency counter; stores bump it on
	// every successful compare-and-set.
	Revision  uint64    `json:"revision"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy so stores can hand out snapshots without
// aliasing the append-only slices.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	out := *r
	if r.CoordinatorID != nil {
		v := *r.CoordinatorID
		out.CoordinatorID = &v
	}
	if r.BeneficiaryID != nil {
		v := *r.BeneficiaryID
		out.BeneficiaryID = &v
	}
	if r.Reviewer.OverriddenBy != nil {
		v := *r.Reviewer.OverriddenBy
		out.Reviewer.OverriddenBy = &v
	}
	if r.Reviewer.OverriddenAt != nil {
		v := *r.Reviewer.OverriddenAt
		out.Reviewer.OverriddenAt = &v
	}
	if r.Proposal != nil {
		v := *r.Proposal
		out.Proposal = &v
	}
	if r.ActiveResponder != nil {
		v := *r.ActiveResponder
		out.ActiveResponder = &v
	}
	if r.LastAction != nil {
		v := *r.LastAction
		out.LastAction = &v
	}
	out.Decisions = append([]DecisionRecord(nil), r.Decisions...)
	return &out
}
