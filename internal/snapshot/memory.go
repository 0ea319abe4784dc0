package snapshot

import (
	"context"
	"fmt"
	"sync"

	"github.com/paraflow/paraflow/internal/types"
)

// MemoryStore is an in-memory snapshot store: the default for tests and
// the REPL, where durability across runs is not needed.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]*types.Snapshot
	order []string // append order; List walks it backwards
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*types.Snapshot)}
}

// Append implements Store.
func (s *MemoryStore) Append(_ context.Context, snap *types.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[snap.ID]; exists {
		return fmt.Errorf("snapshot id %s already exists", snap.ID)
	}
	copied := *snap
	s.byID[snap.ID] = &copied
	s.order = append(s.order, snap.ID)
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (*types.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *snap
	return &copied, nil
}

// List implements Store. Most recent first, by append order.
func (s *MemoryStore) List(_ context.Context, limit int) ([]*types.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.order)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]*types.Snapshot, 0, n)
	for i := len(s.order) - 1; i >= 0 && len(out) < n; i-- {
		copied := *s.byID[s.order[i]]
		out = append(out, &copied)
	}
	return out, nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID = make(map[string]*types.Snapshot)
	s.order = nil
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
