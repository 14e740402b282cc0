package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driveflow/internal/identity"
	jwttoken "driveflow/internal/jwt_token"
	"driveflow/pkg/domain"
)

type env struct {
	jwt    *jwttoken.JWTService
	router chi.Router
	store  *identity.InMemoryStore
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		jwt:   jwttoken.NewJWTService("test-signing-key", "test-issuer", "test-audience"),
		store: identity.NewInMemoryStore(),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(e.store, nil, logger, jwttoken.NewJWTServiceAdapter(e.jwt))
	e.router = chi.NewRouter()
	h.Register(e.router)
	return e
}

func (e *env) do(t *testing.T, role domain.Role, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	token, err := e.jwt.GenerateAccessToken(domain.NewPartyID(), role, time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestPutParty(t *testing.T) {
	e := newEnv(t)
	partyID := domain.NewPartyID()
	counterpart := domain.NewPartyID()

	w := e.do(t, domain.RoleAdministrator, http.MethodPut, "/parties/"+partyID.String(), PartyBody{
		Name:          "Sam Stakeholder",
		Role:          "stakeholder",
		CounterpartID: counterpart.String(),
	})
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := e.store.Resolve(context.Background(), partyID)
	require.NoError(t, err)
	assert.Equal(t, "Sam Stakeholder", stored.Name)
	assert.Equal(t, domain.RoleStakeholder, stored.Role)
	require.NotNil(t, stored.CounterpartID)
	assert.Equal(t, counterpart, *stored.CounterpartID)
}

func TestPutParty_NormalizesLegacyRole(t *testing.T) {
	e := newEnv(t)
	partyID := domain.NewPartyID()

	w := e.do(t, domain.RoleAdministrator, http.MethodPut, "/parties/"+partyID.String(), PartyBody{
		Name: "Cory", Role: "Regional Coord.",
	})
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := e.store.Resolve(context.Background(), partyID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCoordinator, stored.Role)
}

func TestPutParty_Forbidden(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, domain.RoleCoordinator, http.MethodPut, "/parties/"+domain.NewPartyID().String(), PartyBody{
		Name: "x", Role: "stakeholder",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetParty(t *testing.T) {
	e := newEnv(t)
	partyID := domain.NewPartyID()
	require.NoError(t, e.store.Put(context.Background(), &identity.Identity{
		ID: partyID, Name: "Ada", Role: domain.RoleAdministrator,
	}))

	w := e.do(t, domain.RoleStakeholder, http.MethodGet, "/parties/"+partyID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp PartyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Ada", resp.Name)
	assert.Equal(t, 3, resp.Authority)

	w = e.do(t, domain.RoleStakeholder, http.MethodGet, "/parties/"+domain.NewPartyID().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
