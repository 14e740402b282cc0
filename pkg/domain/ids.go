// Package domain holds the primitive types shared by every tier: typed
// identifiers and the role/authority model. Parsing enforces validity at the
// trust boundary so downstream code never re-checks.
package domain

import (
	"github.com/google/uuid"

	dErrors "driveflow/pkg/domain-errors"
)

// PartyID identifies an acting identity (administrator, coordinator, or
// stakeholder). Distinct from RequestID at the type level.
type PartyID uuid.UUID

// RequestID identifies a drive request.
type RequestID uuid.UUID

// ParsePartyID validates and returns a PartyID.
// IDs must be valid, non-empty, non-nil UUIDs.
func ParsePartyID(s string) (PartyID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return PartyID{}, err
	}
	return PartyID(u), nil
}

// ParseRequestID validates and returns a RequestID.
func ParseRequestID(s string) (RequestID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return RequestID{}, err
	}
	return RequestID(u), nil
}

// NewPartyID returns a fresh random PartyID.
func NewPartyID() PartyID {
	return PartyID(uuid.New())
}

// NewRequestID returns a fresh random RequestID.
func NewRequestID() RequestID {
	return RequestID(uuid.New())
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}

func (p PartyID) String() string { return uuid.UUID(p).String() }

// IsNil reports whether the ID is the zero value.
func (p PartyID) IsNil() bool { return uuid.UUID(p) == uuid.Nil }

func (r RequestID) String() string { return uuid.UUID(r).String() }

// IsNil reports whether the ID is the zero value.
func (r RequestID) IsNil() bool { return uuid.UUID(r) == uuid.Nil }
