package wallet

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MemoryRepository is an in-memory Repository for tests. It satisfies
// storage.Snapshotter so a storage.MemoryRunner can roll back failed units
// of work.
type MemoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Wallet
}

// NewMemoryRepository constructs an in-memory repository for tests.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{storage: make(map[string]Wallet)}
}

// Snapshot captures the current state and returns a restore function.
func (r *MemoryRepository) Snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := make(map[string]Wallet, len(r.storage))
	for k, v := range r.storage {
		copied[k] = v
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.storage = copied
	}
}

// Create inserts a wallet record.
func (r *MemoryRepository) Create(_ context.Context, w Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[w.ID]; exists {
		return errors.New("wallet exists")
	}
	r.storage[w.ID] = w
	return nil
}

// FindByID fetches a live wallet scoped to the workspace.
func (r *MemoryRepository) FindByID(_ context.Context, workspaceID, id string) (Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.storage[id]
	if !ok || w.WorkspaceID != workspaceID || w.DeletedAt != nil {
		return Wallet{}, ErrNotFound
	}
	return w, nil
}

// List returns live wallets for a workspace in display order.
func (r *MemoryRepository) List(_ context.Context, workspaceID string) ([]Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var wallets []Wallet
	for _, w := range r.storage {
		if w.WorkspaceID == workspaceID && w.DeletedAt == nil {
			wallets = append(wallets, w)
		}
	}
	sort.Slice(wallets, func(i, j int) bool {
		if wallets[i].SortOrder != wallets[j].SortOrder {
			return wallets[i].SortOrder < wallets[j].SortOrder
		}
		return wallets[i].CreatedAt.Before(wallets[j].CreatedAt)
	})
	return wallets, nil
}

// Update persists mutable display fields.
func (r *MemoryRepository) Update(_ context.Context, w Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.storage[w.ID]
	if !ok || existing.WorkspaceID != w.WorkspaceID || existing.DeletedAt != nil {
		return ErrNotFound
	}
	existing.Name = w.Name
	existing.GroupID = w.GroupID
	existing.IsIncludedInTotals = w.IsIncludedInTotals
	existing.SortOrder = w.SortOrder
	existing.UpdatedAt = time.Now().UTC()
	r.storage[w.ID] = existing
	return nil
}

// SoftDelete marks a wallet deleted while retaining its balance.
func (r *MemoryRepository) SoftDelete(_ context.Context, workspaceID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.storage[id]
	if !ok || w.WorkspaceID != workspaceID || w.DeletedAt != nil {
		return ErrNotFound
	}
	now := time.Now().UTC()
	w.DeletedAt = &now
	w.UpdatedAt = now
	r.storage[id] = w
	return nil
}

// ApplyBalanceDelta adds delta to the stored balance under the repository
// lock, the in-memory stand-in for the store-side increment expression.
func (r *MemoryRepository) ApplyBalanceDelta(_ context.Context, workspaceID, id string, delta decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.storage[id]
	if !ok || w.WorkspaceID != workspaceID || w.DeletedAt != nil {
		return ErrNotFound
	}
	w.Balance = w.Balance.Add(delta)
	w.UpdatedAt = time.Now().UTC()
	r.storage[id] = w
	return nil
}
