package workspace

import (
	"context"
	"errors"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Workspace
}

// NewMemoryRepository constructs an in-memory repository for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Workspace)}
}

func (r *memoryRepository) Create(_ context.Context, ws Workspace) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[ws.ID]; exists {
		return errors.New("workspace exists")
	}
	r.storage[ws.ID] = ws
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Workspace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ws, ok := r.storage[id]
	if !ok {
		return Workspace{}, ErrNotFound
	}
	return ws, nil
}
