package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/xpts/internal/domain/model"
)

// MemoryStore keeps encoded models in memory. Loads decode a fresh copy, so
// callers never share state with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[model.Position][]byte
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[model.Position][]byte)}
}

// Exists implements Store.
func (s *MemoryStore) Exists(_ context.Context, category model.Position) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[category]
	return ok, nil
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, category model.Position) (*model.Model, error) {
	s.mu.RLock()
	b, ok := s.blobs[category]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, category)
	}
	return decode(category, b)
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, category model.Position, m *model.Model) error {
	b, err := encode(category, m)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[category] = b
	return nil
}

// Len returns the number of stored models.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
