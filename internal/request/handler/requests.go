package handler

import (
	"time"

	"driveflow/internal/audit"
	"driveflow/internal/workflow"
)

// CreateRequestBody is the payload for opening a request.
type CreateRequestBody struct {
	ScheduledStart time.Time `json:"scheduled_start"`
	ScheduledEnd   time.Time `json:"scheduled_end"`
	ReviewerID     string    `json:"reviewer_id,omitempty"`
	CoordinatorID  string    `json:"coordinator_id,omitempty"`
	BeneficiaryID  string    `json:"beneficiary_id,omitempty"`
}

// ActionBody is the payload for executing a workflow action.
type ActionBody struct {
	Action        string    `json:"action"`
	ProposedStart time.Time `json:"proposed_start,omitempty"`
	ProposedEnd   time.Time `json:"proposed_end,omitempty"`
	Note          string    `json:"note,omitempty"`
}

// OverrideReviewerBody is the payload for the administrative reviewer swap.
type OverrideReviewerBody struct {
	ReviewerID string `json:"reviewer_id"`
}

// PartyResponse is an identity snapshot on the wire.
type PartyResponse struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Authority int    `json:"authority"`
}

// ReviewerResponse adds assignment provenance to the party snapshot.
type ReviewerResponse struct {
	PartyResponse
	AutoAssigned bool       `json:"auto_assigned"`
	OverriddenBy string     `json:"overridden_by,omitempty"`
	OverriddenAt *time.Time `json:"overridden_at,omitempty"`
}

// ProposalResponse is the live reschedule counter-offer on the wire.
type ProposalResponse struct {
	ProposedBy    string    `json:"proposed_by"`
	ProposedStart time.Time `json:"proposed_start"`
	ProposedEnd   time.Time `json:"proposed_end"`
	Note          string    `json:"note,omitempty"`
}

// DecisionResponse is one decision history entry on the wire.
type DecisionResponse struct {
	Type    string    `json:"type"`
	ActorID string    `json:"actor_id"`
	Role    string    `json:"role"`
	At      time.Time `json:"at"`
}

// ResponderResponse names whose turn it is.
type ResponderResponse struct {
	ID           string `json:"id"`
	Relationship string `json:"relationship"`
}

// RequestResponse is the full request representation on the wire.
type RequestResponse struct {
	ID              string             `json:"id"`
	State           string             `json:"state"`
	Requester       PartyResponse      `json:"requester"`
	Reviewer        ReviewerResponse   `json:"reviewer"`
	CoordinatorID   string             `json:"coordinator_id,omitempty"`
	BeneficiaryID   string             `json:"beneficiary_id,omitempty"`
	ScheduledStart  time.Time          `json:"scheduled_start"`
	ScheduledEnd    time.Time          `json:"scheduled_end"`
	Proposal        *ProposalResponse  `json:"proposal,omitempty"`
	Decisions       []DecisionResponse `json:"decisions"`
	ActiveResponder *ResponderResponse `json:"active_responder,omitempty"`
	Revision        uint64             `json:"revision"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// ActionsResponse lists the legal actions for the acting identity.
type ActionsResponse struct {
	Actions []string `json:"actions"`
}

// HistoryEntryResponse is one audit trail entry on the wire.
type HistoryEntryResponse struct {
	Action    string         `json:"action"`
	ActorID   string         `json:"actor_id"`
	Role      string         `json:"role"`
	Timestamp time.Time      `json:"timestamp"`
	Change    map[string]any `json:"change,omitempty"`
}

func toRequestResponse(req *workflow.Request) RequestResponse {
	out := RequestResponse{
		ID:    req.ID.String(),
		State: req.State.String(),
		Requester: PartyResponse{
			ID:        req.Requester.ID.String(),
			Role:      req.Requester.Role.String(),
			Authority: req.Requester.Authority,
		},
		Reviewer: ReviewerResponse{
			PartyResponse: PartyResponse{
				ID:        req.Reviewer.ID.String(),
				Role:      req.Reviewer.Role.String(),
				Authority: req.Reviewer.Authority,
			},
			AutoAssigned: req.Reviewer.AutoAssigned,
			OverriddenAt: req.Reviewer.OverriddenAt,
		},
		ScheduledStart: req.ScheduledStart,
		ScheduledEnd:   req.ScheduledEnd,
		Decisions:      make([]DecisionResponse, 0, len(req.Decisions)),
		Revision:       req.Revision,
		CreatedAt:      req.CreatedAt,
		UpdatedAt:      req.UpdatedAt,
	}
	if req.Reviewer.OverriddenBy != nil {
		out.Reviewer.OverriddenBy = req.Reviewer.OverriddenBy.String()
	}
	if req.CoordinatorID != nil {
		out.CoordinatorID = req.CoordinatorID.String()
	}
	if req.BeneficiaryID != nil {
		out.BeneficiaryID = req.BeneficiaryID.String()
	}
	if req.Proposal != nil {
		out.Proposal = &ProposalResponse{
			ProposedBy:    req.Proposal.ProposedBy.String(),
			ProposedStart: req.Proposal.ProposedStart,
			ProposedEnd:   req.Proposal.ProposedEnd,
			Note:          req.Proposal.Note,
		}
	}
	for _, d := range req.Decisions {
		out.Decisions = append(out.Decisions, DecisionResponse{
			Type:    d.Type.String(),
			ActorID: d.ActorID.String(),
			Role:    d.Role.String(),
			At:      d.At,
		})
	}
	if req.ActiveResponder != nil {
		out.ActiveResponder = &ResponderResponse{
			ID:           req.ActiveResponder.ID.String(),
			Relationship: string(req.ActiveResponder.Relationship),
		}
	}
	return out
}

func toHistoryResponse(entries []audit.Entry) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntryResponse{
			Action:    e.Action,
			ActorID:   e.ActorID.String(),
			Role:      e.Role.String(),
			Timestamp: e.Timestamp,
			Change:    e.Change,
		})
	}
	return out
}

func toActionsResponse(actions []workflow.Action) ActionsResponse {
	out := ActionsResponse{Actions: make([]string, 0, len(actions))}
	for _, a := range actions {
		out.Actions = append(out.Actions, a.String())
	}
	return out
}
