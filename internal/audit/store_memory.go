package audit

import (
	"context"
	"sync"

	"driveflow/pkg/domain"
)

// InMemoryStore keeps the trail per request, append-only.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[domain.RequestID][]Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[domain.RequestID][]Entry)}
}

func (s *InMemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.RequestID] = append(s.entries[entry.RequestID], entry)
	return nil
}

func (s *InMemoryStore) ListByRequest(_ context.Context, requestID domain.RequestID) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry{}, s.entries[requestID]...), nil
}
