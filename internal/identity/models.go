// Package identity is the party directory collaborator: it resolves an
// identifier to a role label and authority rank, lists candidates by role,
// and knows each stakeholder's configured coordinator counterpart.
package identity

import (
	"context"

	"driveflow/pkg/domain"
)

// Identity is a directory entry for an acting party.
type Identity struct {
	ID   domain.PartyID `json:"id"`
	Name string         `json:"name"`
	Role domain.Role    `json:"role"`
	// CounterpartID is the configured counterpart used by reviewer
	// assignment: a stakeholder's coordinator, a coordinator's supervising
	// administrator.
	CounterpartID *domain.PartyID `json:"counterpart_id,omitempty"`
}

// Authority returns the numeric authority rank derived from the role tier.
func (i Identity) Authority() int {
	return i.Role.Rank()
}

// Directory resolves identities for the engine's collaborators. Stores return
// sentinel errors; services translate.
type Directory interface {
	Resolve(ctx context.Context, id domain.PartyID) (*Identity, error)
	ListByRole(ctx context.Context, role domain.Role) ([]*Identity, error)
}

// Store is a writable directory, used by seeding and administration.
type Store interface {
	Directory
	Put(ctx context.Context, identity *Identity) error
}
