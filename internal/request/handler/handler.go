// Package handler is the HTTP surface of the request lifecycle module. It
// stays thin: decode, delegate to the orchestrator, encode.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"driveflow/internal/audit"
	"driveflow/internal/platform/metrics"
	"driveflow/internal/platform/middleware"
	"driveflow/internal/request"
	"driveflow/internal/transport/http/shared"
	"driveflow/internal/workflow"
	"driveflow/pkg/domain"
	dErrors "driveflow/pkg/domain-errors"
)

// Service defines the orchestrator operations the handler depends on.
type Service interface {
	Create(ctx context.Context, params request.CreateParams) (*workflow.Request, error)
	Execute(ctx context.Context, id domain.RequestID, actorID domain.PartyID, action workflow.Action, params request.ExecuteParams) (*workflow.Request, error)
	AvailableActions(ctx context.Context, id domain.RequestID, actorID domain.PartyID) ([]workflow.Action, error)
	OverrideReviewer(ctx context.Context, id domain.RequestID, newReviewerID, overriderID domain.PartyID) (*workflow.Request, error)
	ListByParty(ctx context.Context, partyID domain.PartyID) ([]*workflow.Request, error)
	History(ctx context.Context, id domain.RequestID) ([]audit.Entry, error)
}

// Handler handles request lifecycle endpoints.
type Handler struct {
	logger       *slog.Logger
	requests     Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a request Handler.
func New(requests Service, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		requests:     requests,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register registers the request routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	requestRouter := chi.NewRouter()
	requestRouter.Use(middleware.Recovery(h.logger))
	requestRouter.Use(middleware.RequestID)
	requestRouter.Use(middleware.Logger(h.logger))
	requestRouter.Use(middleware.Timeout(30 * time.Second))
	requestRouter.Use(middleware.ContentTypeJSON)
	requestRouter.Use(middleware.Latency(h.metrics))
	requestRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

	requestRouter.Post("/requests", h.handleCreate)
	requestRouter.Get("/requests", h.handleList)
	requestRouter.Get("/requests/{requestID}", h.handleGet)
	requestRouter.Post("/requests/{requestID}/actions", h.handleExecute)
	requestRouter.Get("/requests/{requestID}/actions", h.handleAvailableActions)
	requestRouter.Put("/requests/{requestID}/reviewer", h.handleOverrideReviewer)
	requestRouter.Get("/requests/{requestID}/history", h.handleHistory)

	r.Mount("/", requestRouter)
}

// actingParty pulls the authenticated party out of the context.
func (h *Handler) actingParty(w http.ResponseWriter, r *http.Request) (domain.PartyID, bool) {
	ctx := r.Context()
	raw := middleware.GetPartyID(ctx)
	if raw == "" {
		// RequireAuth guarantees a party; reaching here is a wiring bug.
		h.logger.ErrorContext(ctx, "party missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return domain.PartyID{}, false
	}
	partyID, err := domain.ParsePartyID(raw)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid party identity"))
		return domain.PartyID{}, false
	}
	return partyID, true
}

func (h *Handler) requestID(w http.ResponseWriter, r *http.Request) (domain.RequestID, bool) {
	id, err := domain.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request id"))
		return domain.RequestID{}, false
	}
	return id, true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.actingParty(w, r)
	if !ok {
		return
	}

	var body CreateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	params := request.CreateParams{
		CreatorID:      actor,
		ScheduledStart: body.ScheduledStart,
		ScheduledEnd:   body.ScheduledEnd,
	}
	var err error
	if params.ReviewerID, err = optionalPartyID(body.ReviewerID); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid reviewer id"))
		return
	}
	if params.CoordinatorID, err = optionalPartyID(body.CoordinatorID); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid coordinator id"))
		return
	}
	if params.BeneficiaryID, err = optionalPartyID(body.BeneficiaryID); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid beneficiary id"))
		return
	}

	created, err := h.requests.Create(ctx, params)
	if err != nil {
		h.writeServiceError(ctx, w, "create request", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toRequestResponse(created))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.actingParty(w, r)
	if !ok {
		return
	}

	requests, err := h.requests.ListByParty(ctx, actor)
	if err != nil {
		h.writeServiceError(ctx, w, "list requests", err)
		return
	}
	out := make([]RequestResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, toRequestResponse(req))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

// handleGet routes the read through the same legality path as every other
// action, so unknown identities are rejected consistently.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.actingParty(w, r)
	if !ok {
		return
	}
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}

	snapshot, err := h.requests.Execute(ctx, id, actor, workflow.ActionView, request.ExecuteParams{})
	if err != nil {
		h.writeServiceError(ctx, w, "get request", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toRequestResponse(snapshot))
}

func (h *Handler) handleExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.actingParty(w, r)
	if !ok {
		return
	}
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}

	var body ActionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	action, ok := workflow.ParseAction(body.Action)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown action "+body.Action))
		return
	}

	updated, err := h.requests.Execute(ctx, id, actor, action, request.ExecuteParams{
		ProposedStart: body.ProposedStart,
		ProposedEnd:   body.ProposedEnd,
		Note:          body.Note,
	})
	if err != nil {
		h.writeServiceError(ctx, w, "execute action", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toRequestResponse(updated))
}

func (h *Handler) handleAvailableActions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.actingParty(w, r)
	if !ok {
		return
	}
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}

	actions, err := h.requests.AvailableActions(ctx, id, actor)
	if err != nil {
		h.writeServiceError(ctx, w, "list actions", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toActionsResponse(actions))
}

func (h *Handler) handleOverrideReviewer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.actingParty(w, r)
	if !ok {
		return
	}
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}

	var body OverrideReviewerBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	reviewerID, err := domain.ParsePartyID(body.ReviewerID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid reviewer id"))
		return
	}

	updated, err := h.requests.OverrideReviewer(ctx, id, reviewerID, actor)
	if err != nil {
		h.writeServiceError(ctx, w, "override reviewer", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toRequestResponse(updated))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.actingParty(w, r)
	if !ok {
		return
	}
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}

	// Visibility follows the same legality path as reads.
	if _, err := h.requests.Execute(ctx, id, actor, workflow.ActionView, request.ExecuteParams{}); err != nil {
		h.writeServiceError(ctx, w, "get request", err)
		return
	}

	entries, err := h.requests.History(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "load history", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toHistoryResponse(entries))
}

// writeServiceError logs server-side failures and translates everything into
// the shared error envelope.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if dErrors.Is(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, "request operation failed",
			"op", op,
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
	} else {
		h.logger.WarnContext(ctx, "request operation rejected",
			"op", op,
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
	}
	shared.WriteError(w, err)
}

func optionalPartyID(raw string) (*domain.PartyID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := domain.ParsePartyID(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
