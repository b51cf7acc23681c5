// Package backend builds the ledger's storage and event publisher from
// configuration.
package backend

import (
	"context"

	"datalens/internal/ledger"
	"datalens/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the ledger service and its cleanup function
type BackendResult struct {
	Repository storage.Repository
	Service    *ledger.Service
	Cleanup    CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}
