package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"

	"datalens/internal/core"
)

const (
	badgerTxPrefix = "tx:"
	badgerSeqKey   = "seq:tx"
)

// BadgerRepository stores transactions as JSON values keyed by zero-padded
// id, so a prefix scan yields them in id order.
type BadgerRepository struct {
	db  *badger.DB
	seq *badger.Sequence
}

// NewBadgerRepository opens a Badger store in dir, or an in-memory one if
// dir is empty.
func NewBadgerRepository(dir string) (*BadgerRepository, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	seq, err := db.GetSequence([]byte(badgerSeqKey), 100)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open id sequence: %w", err)
	}

	return &BadgerRepository{db: db, seq: seq}, nil
}

func badgerKey(id int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", badgerTxPrefix, id))
}

func (r *BadgerRepository) Create(ctx context.Context, n core.NewTransaction) (core.Transaction, error) {
	next, err := r.seq.Next()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("next id: %w", err)
	}
	// sequences start at zero
	tx := core.Transaction{ID: int64(next) + 1, Description: n.Description, Amount: n.Amount}

	data, err := json.Marshal(tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("marshal transaction: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(tx.ID), data)
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("store transaction: %w", err)
	}
	return tx, nil
}

func (r *BadgerRepository) Get(ctx context.Context, id int64) (core.Transaction, error) {
	var tx core.Transaction
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &tx)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("retrieve transaction: %w", err)
	}
	return tx, nil
}

func (r *BadgerRepository) List(ctx context.Context) ([]core.Transaction, error) {
	out := []core.Transaction{}
	prefix := []byte(badgerTxPrefix)

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			if !bytes.HasPrefix(item.Key(), prefix) {
				continue
			}
			var tx core.Transaction
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &tx)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", item.Key(), err)
			}
			out = append(out, tx)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

func (r *BadgerRepository) Close() error {
	var errs []error
	if r.seq != nil {
		errs = append(errs, r.seq.Release())
	}
	if r.db != nil {
		errs = append(errs, r.db.Close())
	}
	return errors.Join(errs...)
}
