package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process [Store] for tests and single-process servers.
// It is safe for concurrent use.
type MemoryStore struct {
	mu   sync.Mutex
	id   string
	data Data
}

// NewMemoryStore describes the newmemorystore operation and its observable behavior.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{id: uuid.NewString()}
}

// ID describes the id operation and its observable behavior.
func (s *MemoryStore) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Load describes the load operation and its observable behavior.
func (s *MemoryStore) Load(ctx context.Context) (Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data, nil
}

// Save describes the save operation and its observable behavior.
func (s *MemoryStore) Save(ctx context.Context, d Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = d
	return nil
}

// Clear describes the clear operation and its observable behavior.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = Data{}
	return nil
}

// RegenerateID describes the regenerateid operation and its observable behavior.
func (s *MemoryStore) RegenerateID(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = uuid.NewString()
	return nil
}
