package storage

import (
	"context"
	"sync"

	"datalens/internal/core"
)

// MemoryRepository keeps transactions in process memory.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	txs    []core.Transaction
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1}
}

func (r *MemoryRepository) List(ctx context.Context) ([]core.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.Transaction, len(r.txs))
	copy(out, r.txs)
	return out, nil
}

func (r *MemoryRepository) Create(ctx context.Context, n core.NewTransaction) (core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return core.Transaction{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	tx := core.Transaction{ID: r.nextID, Description: n.Description, Amount: n.Amount}
	r.nextID++
	r.txs = append(r.txs, tx)
	return tx, nil
}

func (r *MemoryRepository) Get(ctx context.Context, id int64) (core.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	// ids are dense and ordered
	if id < 1 || id > int64(len(r.txs)) {
		return core.Transaction{}, ErrNotFound
	}
	return r.txs[id-1], nil
}

func (r *MemoryRepository) Close() error { return nil }
