// Package ledger is the reference transactions backend: a JSON API over a
// storage.Repository that announces new transactions on a message broker.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"

	"datalens/internal/core"
	"datalens/internal/log"
	"datalens/internal/storage"
)

// Publisher announces stored transactions.
type Publisher interface {
	PublishTransactionCreated(ctx context.Context, tx core.Transaction) error
}

// Service orchestrates storage and event publishing.
type Service struct {
	repo      storage.Repository
	publisher Publisher
	logger    *log.Logger
}

// NewService wires repo and an optional publisher.
func NewService(repo storage.Repository, publisher Publisher, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Discard()
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentLedger),
	}
}

func (s *Service) List(ctx context.Context) ([]core.Transaction, error) {
	txs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Ping checks the repository. Stores without a cheaper probe are listed.
func (s *Service) Ping(ctx context.Context) error {
	if p, ok := s.repo.(storage.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("ping storage: %w", err)
		}
		return nil
	}
	_, err := s.List(ctx)
	return err
}

func (s *Service) Get(ctx context.Context, id int64) (core.Transaction, error) {
	tx, err := s.repo.Get(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return tx, nil
}

// Create validates and stores n. The event is published after the store
// succeeds; a publish failure is logged and does not fail the call.
func (s *Service) Create(ctx context.Context, n core.NewTransaction) (core.Transaction, error) {
	if err := n.Validate(); err != nil {
		return core.Transaction{}, err
	}

	tx, err := s.repo.Create(ctx, n)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	log.NewStructuredLogger(s.logger).LogTransactionCreated(ctx, tx.ID, tx.Description, tx.Amount.String())

	if s.publisher != nil {
		if err := s.publisher.PublishTransactionCreated(ctx, tx); err != nil {
			log.NewStructuredLogger(s.logger).LogError(ctx, "Failed to publish transaction event", err,
				log.ErrorTypeNetwork, log.OpPublish,
				log.NewFields().WithTransaction(tx.ID, tx.Description, tx.Amount.String()))
		}
	}

	return tx, nil
}

// Close releases the repository and the publisher.
func (s *Service) Close() error {
	var errs []error
	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	return errors.Join(errs...)
}
