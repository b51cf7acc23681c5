// Package storage persists ledger transactions. Three backends share the
// Repository contract: an in-process map, SQLite and Badger.
package storage

import (
	"context"
	"errors"

	"datalens/internal/core"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("transaction not found")

// Repository stores transactions. Ids are assigned by the repository,
// start at 1 and grow monotonically; List returns records ordered by id.
type Repository interface {
	List(ctx context.Context) ([]core.Transaction, error)
	Create(ctx context.Context, tx core.NewTransaction) (core.Transaction, error)
	Get(ctx context.Context, id int64) (core.Transaction, error)
	Close() error
}

// Pinger is implemented by repositories that can check their store without
// reading from it.
type Pinger interface {
	Ping(ctx context.Context) error
}
