package transaction

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is an in-memory Repository for tests. It satisfies
// storage.Snapshotter so a storage.MemoryRunner can roll back failed units
// of work.
type MemoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Transaction
}

// NewMemoryRepository constructs an in-memory repository for tests.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{storage: make(map[string]Transaction)}
}

// Snapshot captures the current state and returns a restore function.
func (r *MemoryRepository) Snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := make(map[string]Transaction, len(r.storage))
	for k, v := range r.storage {
		copied[k] = v
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.storage = copied
	}
}

// Create inserts a transaction record.
func (r *MemoryRepository) Create(_ context.Context, t Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[t.ID]; exists {
		return errors.New("transaction exists")
	}
	r.storage[t.ID] = t
	return nil
}

// FindByID fetches a live transaction scoped to the workspace.
func (r *MemoryRepository) FindByID(_ context.Context, workspaceID, id string) (Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.storage[id]
	if !ok || t.WorkspaceID != workspaceID || t.DeletedAt != nil {
		return Transaction{}, ErrNotFound
	}
	return t, nil
}

// Update persists the mutable fields of a transaction.
func (r *MemoryRepository) Update(_ context.Context, t Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.storage[t.ID]
	if !ok || existing.WorkspaceID != t.WorkspaceID || existing.DeletedAt != nil {
		return ErrNotFound
	}
	existing.WalletID = t.WalletID
	existing.ToWalletID = t.ToWalletID
	existing.CategoryID = t.CategoryID
	existing.Amount = t.Amount
	existing.Date = t.Date
	existing.Type = t.Type
	existing.Description = t.Description
	existing.Note = t.Note
	existing.UpdatedAt = time.Now().UTC()
	r.storage[t.ID] = existing
	return nil
}

// SoftDelete marks a transaction deleted; an already-deleted row reports not
// found.
func (r *MemoryRepository) SoftDelete(_ context.Context, workspaceID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.storage[id]
	if !ok || t.WorkspaceID != workspaceID || t.DeletedAt != nil {
		return ErrNotFound
	}
	now := time.Now().UTC()
	t.DeletedAt = &now
	t.UpdatedAt = now
	r.storage[id] = t
	return nil
}

// List returns a page of live transactions ordered by (date desc, created_at
// desc).
func (r *MemoryRepository) List(_ context.Context, workspaceID string, filter Filter, limit, offset int) ([]Transaction, error) {
	matched := r.matching(workspaceID, filter)
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

// Count returns the number of live transactions matching the filter.
func (r *MemoryRepository) Count(_ context.Context, workspaceID string, filter Filter) (int64, error) {
	return int64(len(r.matching(workspaceID, filter))), nil
}

func (r *MemoryRepository) matching(workspaceID string, filter Filter) []Transaction {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []Transaction
	for _, t := range r.storage {
		if t.WorkspaceID != workspaceID || t.DeletedAt != nil {
			continue
		}
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		if filter.WalletID != "" && t.WalletID != filter.WalletID && t.ToWalletID != filter.WalletID {
			continue
		}
		if filter.CategoryID != "" && t.CategoryID != filter.CategoryID {
			continue
		}
		if filter.DateFrom != nil && t.Date.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && t.Date.After(*filter.DateTo) {
			continue
		}
		matched = append(matched, t)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.After(matched[j].Date)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched
}
