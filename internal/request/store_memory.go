package request

import (
	"context"
	"sort"
	"sync"

	"driveflow/internal/workflow"
	"driveflow/pkg/domain"
	"driveflow/pkg/platform/sentinel"
)

// InMemoryStore keeps snapshots under a single lock, honoring the
// compare-and-set contract for tests and local development.
type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[domain.RequestID]*workflow.Request
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{requests: make(map[domain.RequestID]*workflow.Request)}
}

func (s *InMemoryStore) Create(_ context.Context, req *workflow.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[req.ID]; exists {
		return sentinel.ErrConflict
	}
	stored := req.Clone()
	stored.Revision = 1
	s.requests[req.ID] = stored
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.RequestID) (*workflow.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return stored.Clone(), nil
}

func (s *InMemoryStore) Update(ctx context.Context, req *workflow.Request, expectedRevision uint64) (*workflow.Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.requests[req.ID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if stored.Revision != expectedRevision {
		return nil, sentinel.ErrConflict
	}
	next := req.Clone()
	next.Revision = expectedRevision + 1
	s.requests[req.ID] = next
	return next.Clone(), nil
}

func (s *InMemoryStore) ListByParty(_ context.Context, partyID domain.PartyID) ([]*workflow.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*workflow.Request
	for _, stored := range s.requests {
		if s.involves(stored, partyID) {
			out = append(out, stored.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) involves(req *workflow.Request, partyID domain.PartyID) bool {
	if req.Requester.ID == partyID || req.Reviewer.ID == partyID {
		return true
	}
	if req.BeneficiaryID != nil && *req.BeneficiaryID == partyID {
		return true
	}
	return req.CoordinatorID != nil && *req.CoordinatorID == partyID
}
