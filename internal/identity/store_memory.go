package identity

import (
	"context"
	"sort"
	"sync"

	"driveflow/pkg/domain"
	"driveflow/pkg/platform/sentinel"
)

// InMemoryStore is the development and test directory.
type InMemoryStore struct {
	mu      sync.RWMutex
	parties map[domain.PartyID]*Identity
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{parties: make(map[domain.PartyID]*Identity)}
}

func (s *InMemoryStore) Put(_ context.Context, identity *Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *identity
	s.parties[identity.ID] = &cp
	return nil
}

func (s *InMemoryStore) Resolve(_ context.Context, id domain.PartyID) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found, ok := s.parties[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *found
	return &cp, nil
}

// ListByRole returns matching identities ordered by ID so assignment stays
// deterministic.
func (s *InMemoryStore) ListByRole(_ context.Context, role domain.Role) ([]*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Identity
	for _, p := range s.parties {
		if p.Role == role {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}
