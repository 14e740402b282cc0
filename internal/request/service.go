package request

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"driveflow/internal/assignment"
	"driveflow/internal/audit"
	"driveflow/internal/identity"
	"driveflow/internal/request/metrics"
	"driveflow/internal/workflow"
	"driveflow/pkg/domain"
	dErrors "driveflow/pkg/domain-errors"
	"driveflow/pkg/platform/sentinel"
)

// conflictAttempts bounds the compare-and-set retry loop. Only revision
// conflicts are retried; every other failure surfaces immediately.
const conflictAttempts = 3

// CreateParams carries everything the orchestrator needs to open a request.
type CreateParams struct {
	CreatorID domain.PartyID
	// ReviewerID names an explicit reviewer; it wins over assignment policy.
	ReviewerID *domain.PartyID
	// CoordinatorID is the coordinator explicitly named by the creator.
	CoordinatorID *domain.PartyID
	// BeneficiaryID is the stakeholder a coordinator acts on behalf of.
	BeneficiaryID *domain.PartyID

	ScheduledStart time.Time
	ScheduledEnd   time.Time
}

// ExecuteParams is the optional payload of a transition. Reschedule requires
// a proposed window; every other action ignores the payload.
type ExecuteParams struct {
	ProposedStart time.Time
	ProposedEnd   time.Time
	Note          string
}

// Service is the orchestrator. All mutation goes through Execute so the
// engine's legality rules and the audit trail cannot be bypassed.
type Service struct {
	store     Store
	directory identity.Directory
	assigner  *assignment.Service
	engine    *workflow.Engine
	auditor   *audit.Recorder
	metrics   *metrics.Metrics
	logger    *slog.Logger

	now func() time.Time
}

func NewService(store Store, directory identity.Directory, assigner *assignment.Service, engine *workflow.Engine, auditor *audit.Recorder, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		directory: directory,
		assigner:  assigner,
		engine:    engine,
		auditor:   auditor,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Create opens a request in pending review with a resolved reviewer of
// record. Assignment exhaustion fails the creation: a request is never
// persisted without a reviewer.
func (s *Service) Create(ctx context.Context, params CreateParams) (*workflow.Request, error) {
	if params.ScheduledStart.IsZero() || !params.ScheduledEnd.After(params.ScheduledStart) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "scheduled window must be a non-empty interval")
	}

	creator, err := s.directory.Resolve(ctx, params.CreatorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeForbidden, "creating identity is unknown")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "resolve creator", err)
	}

	reviewer, err := s.assigner.AssignReviewer(ctx, creator.Role, creator.ID, assignment.Context{
		ReviewerID:    params.ReviewerID,
		CoordinatorID: params.CoordinatorID,
		BeneficiaryID: params.BeneficiaryID,
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	req := &workflow.Request{
		ID:    domain.NewRequestID(),
		State: workflow.StatePendingReview,
		Requester: workflow.Party{
			ID:        creator.ID,
			Role:      creator.Role,
			Authority: creator.Authority(),
		},
		Reviewer:       reviewer,
		CreatedByRole:  domain.NormalizeRole(string(creator.Role)),
		CoordinatorID:  params.CoordinatorID,
		BeneficiaryID:  params.BeneficiaryID,
		ScheduledStart: params.ScheduledStart,
		ScheduledEnd:   params.ScheduledEnd,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	req.ActiveResponder = s.engine.ActiveResponder(req)

	if err := s.store.Create(ctx, req); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "persist request", err)
	}
	stored, err := s.store.Get(ctx, req.ID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "read back request", err)
	}

	s.record(ctx, audit.Entry{
		RequestID: stored.ID,
		Action:    "created",
		ActorID:   creator.ID,
		Role:      creator.Role,
		Change: map[string]any{
			"state":       string(stored.State),
			"reviewer_id": stored.Reviewer.ID.String(),
			"start":       stored.ScheduledStart,
			"end":         stored.ScheduledEnd,
		},
	})
	return stored, nil
}

// Execute applies one workflow action on behalf of the acting identity. The
// whole read-validate-write cycle retries on revision conflicts; legality is
// re-evaluated against the fresh snapshot on every attempt, so a transition
// legal a moment ago but not anymore fails rather than applies.
func (s *Service) Execute(ctx context.Context, id domain.RequestID, actorID domain.PartyID, action workflow.Action, params ExecuteParams) (*workflow.Request, error) {
	started := s.now()
	defer func() { s.metrics.ObserveExecuteLatency(s.now().Sub(started)) }()

	actor, err := s.directory.Resolve(ctx, actorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncrementTransition(action.String(), "forbidden")
			return nil, dErrors.New(dErrors.CodeForbidden, "acting identity is unknown")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "resolve actor", err)
	}

	for attempt := 0; attempt < conflictAttempts; attempt++ {
		snapshot, err := s.store.Get(ctx, id)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "request not found")
			}
			return nil, dErrors.Wrap(dErrors.CodeInternal, "load request", err)
		}

		if !s.engine.Allowed(snapshot, actor.ID, actor.Role, action) {
			s.metrics.IncrementTransition(action.String(), "forbidden")
			return nil, dErrors.New(dErrors.CodeForbidden,
				"action "+action.String()+" is not permitted for this identity in state "+snapshot.State.String())
		}

		// View is a legality-checked read: no transition, no audit entry.
		if action == workflow.ActionView {
			s.metrics.IncrementTransition(action.String(), "applied")
			return snapshot, nil
		}

		next, ok := s.engine.NextState(snapshot.State, action)
		if !ok {
			s.metrics.IncrementTransition(action.String(), "illegal")
			return nil, dErrors.New(dErrors.CodeIllegalTransition,
				"no transition for action "+action.String()+" from state "+snapshot.State.String())
		}

		updated, err := s.apply(snapshot, actor, action, next, params)
		if err != nil {
			return nil, err
		}

		persisted, err := s.store.Update(ctx, updated, snapshot.Revision)
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementConflictRetry()
			continue
		}
		if err != nil {
			// A cancelled write never produces an audit entry: the store
			// outcome is unknown and the trail must not claim a transition
			// that may not exist.
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, dErrors.Wrap(dErrors.CodeInternal, "persist transition", err)
		}

		s.metrics.IncrementTransition(action.String(), "applied")
		s.record(ctx, audit.Entry{
			RequestID: persisted.ID,
			Action:    action.String(),
			ActorID:   actor.ID,
			Role:      actor.Role,
			Change:    changeOf(snapshot, persisted, action),
		})
		return persisted, nil
	}

	s.metrics.IncrementTransition(action.String(), "conflict")
	return nil, dErrors.New(dErrors.CodeConflict, "request was concurrently modified; retry")
}

// apply builds the post-transition snapshot. Pure except for the clock.
func (s *Service) apply(snapshot *workflow.Request, actor *identity.Identity, action workflow.Action, next workflow.State, params ExecuteParams) (*workflow.Request, error) {
	now := s.now()
	updated := snapshot.Clone()
	from := workflow.NormalizeState(string(snapshot.State))
	updated.State = next

	switch action {
	case workflow.ActionReschedule:
		if params.ProposedStart.IsZero() || !params.ProposedEnd.After(params.ProposedStart) {
			return nil, dErrors.New(dErrors.CodeBadRequest, "reschedule requires a non-empty proposed window")
		}
		updated.Proposal = &workflow.RescheduleProposal{
			ProposedBy:     actor.ID,
			ProposedByRole: actor.Role,
			ProposedStart:  params.ProposedStart,
			ProposedEnd:    params.ProposedEnd,
			Note:           params.Note,
		}
	case workflow.ActionAccept, workflow.ActionConfirm:
		// Ratifying a live proposal adopts its window and closes the loop.
		if from == workflow.StateReviewRescheduled && snapshot.Proposal != nil {
			updated.ScheduledStart = snapshot.Proposal.ProposedStart
			updated.ScheduledEnd = snapshot.Proposal.ProposedEnd
			updated.Proposal = nil
		}
	}

	updated.Decisions = append(updated.Decisions, workflow.DecisionRecord{
		Type:    action,
		ActorID: actor.ID,
		Role:    actor.Role,
		At:      now,
	})
	updated.LastAction = &workflow.LastAction{Action: action, ActorID: actor.ID, At: now}
	updated.ActiveResponder = s.engine.ActiveResponder(updated)
	updated.UpdatedAt = now
	return updated, nil
}

// AvailableActions projects the acting identity's legal action set without
// mutating anything. Shares the exact rule path Execute enforces.
func (s *Service) AvailableActions(ctx context.Context, id domain.RequestID, actorID domain.PartyID) ([]workflow.Action, error) {
	actor, err := s.directory.Resolve(ctx, actorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeForbidden, "acting identity is unknown")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "resolve actor", err)
	}
	snapshot, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "request not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load request", err)
	}
	return s.engine.AllowedActions(snapshot, actor.ID, actor.Role), nil
}

// OverrideReviewer is the administrative side channel: it swaps the reviewer
// of record outside turn logic. State is untouched; provenance is recorded on
// the assignment and in the audit trail.
func (s *Service) OverrideReviewer(ctx context.Context, id domain.RequestID, newReviewerID, overriderID domain.PartyID) (*workflow.Request, error) {
	for attempt := 0; attempt < conflictAttempts; attempt++ {
		snapshot, err := s.store.Get(ctx, id)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "request not found")
			}
			return nil, dErrors.Wrap(dErrors.CodeInternal, "load request", err)
		}
		if snapshot.State.IsTerminal() {
			return nil, dErrors.New(dErrors.CodeIllegalTransition, "cannot override the reviewer of a settled request")
		}

		now := s.now()
		reviewer, err := s.assigner.Override(ctx, newReviewerID, overriderID, now)
		if err != nil {
			return nil, err
		}

		updated := snapshot.Clone()
		previous := updated.Reviewer.ID
		updated.Reviewer = reviewer
		updated.ActiveResponder = s.engine.ActiveResponder(updated)
		updated.UpdatedAt = now

		persisted, err := s.store.Update(ctx, updated, snapshot.Revision)
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementConflictRetry()
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, dErrors.Wrap(dErrors.CodeInternal, "persist reviewer override", err)
		}

		s.record(ctx, audit.Entry{
			RequestID: persisted.ID,
			Action:    "reviewer_overridden",
			ActorID:   overriderID,
			Role:      domain.RoleAdministrator,
			Change: map[string]any{
				"previous_reviewer_id": previous.String(),
				"reviewer_id":          persisted.Reviewer.ID.String(),
			},
		})
		return persisted, nil
	}
	return nil, dErrors.New(dErrors.CodeConflict, "request was concurrently modified; retry")
}

// Get returns the current snapshot.
func (s *Service) Get(ctx context.Context, id domain.RequestID) (*workflow.Request, error) {
	snapshot, err := s.store.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "request not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load request", err)
	}
	return snapshot, nil
}

// ListByParty returns every request the identity participates in, oldest
// first.
func (s *Service) ListByParty(ctx context.Context, partyID domain.PartyID) ([]*workflow.Request, error) {
	out, err := s.store.ListByParty(ctx, partyID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list requests", err)
	}
	return out, nil
}

// History exposes the audit trail for a request.
func (s *Service) History(ctx context.Context, id domain.RequestID) ([]audit.Entry, error) {
	entries, err := s.auditor.ListByRequest(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load audit trail", err)
	}
	return entries, nil
}

// record writes the audit entry after a successful persist. The transition
// already happened; an audit failure is logged, never surfaced.
func (s *Service) record(ctx context.Context, entry audit.Entry) {
	if err := s.auditor.Record(ctx, entry); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "audit record failed",
			"request_id", entry.RequestID.String(),
			"action", entry.Action,
			"error", err,
		)
	}
}

func changeOf(before, after *workflow.Request, action workflow.Action) map[string]any {
	change := map[string]any{
		"from": string(before.State),
		"to":   string(after.State),
	}
	if action == workflow.ActionReschedule && after.Proposal != nil {
		change["proposed_start"] = after.Proposal.ProposedStart
		change["proposed_end"] = after.Proposal.ProposedEnd
	}
	if before.ScheduledStart != after.ScheduledStart {
		change["start"] = after.ScheduledStart
		change["end"] = after.ScheduledEnd
	}
	return change
}
