package preferences

import (
	"context"
	"sync"

	"github.com/zatekoja/adminconsole/internal/domain/entities"
)

// MemorySortStore keeps preferences for the life of the process
type MemorySortStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemorySortStore creates an empty store
func NewMemorySortStore() *MemorySortStore {
	return &MemorySortStore{values: make(map[string][]byte)}
}

// Load implements providers.SortStore
func (s *MemorySortStore) Load(ctx context.Context, listID string) (*entities.SortState, error) {
	s.mu.RLock()
	raw, ok := s.values[listID]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	return decodeSort(raw)
}

// Save implements providers.SortStore
func (s *MemorySortStore) Save(ctx context.Context, listID string, state entities.SortState) error {
	raw, err := encodeSort(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.values[listID] = raw
	s.mu.Unlock()
	return nil
}

// NopSortStore stores nothing
type NopSortStore struct{}

// Load implements providers.SortStore
func (NopSortStore) Load(ctx context.Context, listID string) (*entities.SortState, error) {
	return nil, nil
}

// Save implements providers.SortStore
func (NopSortStore) Save(ctx context.Context, listID string, state entities.SortState) error {
	return nil
}
