// Package handler is the directory administration surface: enrolling parties
// and inspecting directory entries.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"driveflow/internal/identity"
	"driveflow/internal/platform/middleware"
	"driveflow/internal/transport/http/shared"
	"driveflow/pkg/domain"
	dErrors "driveflow/pkg/domain-errors"
	"driveflow/pkg/platform/sentinel"
)

// Invalidator drops cached directory entries after writes. Nil when no cache
// is configured.
type Invalidator interface {
	Invalidate(ctx context.Context, id domain.PartyID) error
}

// Handler handles directory endpoints.
type Handler struct {
	logger       *slog.Logger
	store        identity.Store
	cache        Invalidator
	jwtValidator middleware.JWTValidator
}

func New(store identity.Store, cache Invalidator, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		store:        store,
		cache:        cache,
		jwtValidator: jwtValidator,
	}
}

// Register registers the directory routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	partyRouter := chi.NewRouter()
	partyRouter.Use(middleware.Recovery(h.logger))
	partyRouter.Use(middleware.RequestID)
	partyRouter.Use(middleware.Logger(h.logger))
	partyRouter.Use(middleware.Timeout(10 * time.Second))
	partyRouter.Use(middleware.ContentTypeJSON)
	partyRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

	partyRouter.Put("/parties/{partyID}", h.handlePut)
	partyRouter.Get("/parties/{partyID}", h.handleGet)

	r.Mount("/", partyRouter)
}

// PartyBody is the enrollment payload.
type PartyBody struct {
	Name          string `json:"name"`
	Role          string `json:"role"`
	CounterpartID string `json:"counterpart_id,omitempty"`
}

// PartyResponse is a directory entry on the wire.
type PartyResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	Authority     int    `json:"authority"`
	CounterpartID string `json:"counterpart_id,omitempty"`
}

// handlePut enrolls or updates a party. Administrator-only: the directory
// decides everyone's authority, so writes to it are themselves privileged.
func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if domain.NormalizeRole(middleware.GetRole(ctx)) != domain.RoleAdministrator {
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "only an administrator may modify the directory"))
		return
	}

	partyID, err := domain.ParsePartyID(chi.URLParam(r, "partyID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid party id"))
		return
	}

	var body PartyBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	role := domain.NormalizeRole(body.Role)
	if !role.IsCanonical() {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "role is not a known tier"))
		return
	}

	entry := &identity.Identity{ID: partyID, Name: body.Name, Role: role}
	if body.CounterpartID != "" {
		counterpart, err := domain.ParsePartyID(body.CounterpartID)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid counterpart id"))
			return
		}
		entry.CounterpartID = &counterpart
	}

	if err := h.store.Put(ctx, entry); err != nil {
		h.logger.ErrorContext(ctx, "directory put failed",
			"party_id", partyID.String(),
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to store party"))
		return
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(ctx, partyID); err != nil {
			h.logger.WarnContext(ctx, "directory cache invalidation failed",
				"party_id", partyID.String(),
				"error", err.Error(),
			)
		}
	}
	shared.WriteJSON(w, http.StatusOK, toPartyResponse(entry))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	partyID, err := domain.ParsePartyID(chi.URLParam(r, "partyID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid party id"))
		return
	}

	entry, err := h.store.Resolve(ctx, partyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "party not found"))
			return
		}
		h.logger.ErrorContext(ctx, "directory resolve failed",
			"party_id", partyID.String(),
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to resolve party"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, toPartyResponse(entry))
}

func toPartyResponse(entry *identity.Identity) PartyResponse {
	out := PartyResponse{
		ID:        entry.ID.String(),
		Name:      entry.Name,
		Role:      entry.Role.String(),
		Authority: entry.Authority(),
	}
	if entry.CounterpartID != nil {
		out.CounterpartID = entry.CounterpartID.String()
	}
	return out
}
