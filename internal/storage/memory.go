package storage

import (
	"context"
	"sync"
)

// Snapshotter is implemented by in-memory stores that can capture their state
// and hand back a restore function.
type Snapshotter interface {
	Snapshot() (restore func())
}

// MemoryRunner implements Runner over in-memory stores for tests. Units of
// work are serialized by a mutex; on failure every registered store is
// restored to its pre-unit snapshot, mirroring a database rollback.
type MemoryRunner struct {
	mu     sync.Mutex
	stores []Snapshotter
}

// NewMemoryRunner builds a runner coordinating the given stores.
func NewMemoryRunner(stores ...Snapshotter) *MemoryRunner {
	return &MemoryRunner{stores: stores}
}

// InTx runs fn under the runner lock and undoes all store mutations when fn
// returns an error.
func (r *MemoryRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	restores := make([]func(), 0, len(r.stores))
	for _, s := range r.stores {
		restores = append(restores, s.Snapshot())
	}

	if err := fn(ctx); err != nil {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
		return err
	}

	return nil
}
