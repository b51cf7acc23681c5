package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datalens/internal/core"
)

func backends(t *testing.T) map[string]func(t *testing.T) Repository {
	t.Helper()
	return map[string]func(t *testing.T) Repository{
		"memory": func(t *testing.T) Repository {
			return NewMemoryRepository()
		},
		"sqlite": func(t *testing.T) Repository {
			repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"), nil)
			require.NoError(t, err)
			return repo
		},
		"badger": func(t *testing.T) Repository {
			repo, err := NewBadgerRepository("")
			require.NoError(t, err)
			return repo
		},
	}
}

func TestRepositoryContract(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			repo := open(t)
			defer repo.Close()
			ctx := context.Background()

			list, err := repo.List(ctx)
			require.NoError(t, err)
			assert.NotNil(t, list)
			assert.Empty(t, list)

			coffee, err := repo.Create(ctx, core.NewTransaction{Description: "Coffee", Amount: decimal.RequireFromString("4.5")})
			require.NoError(t, err)
			assert.Equal(t, int64(1), coffee.ID)

			rent, err := repo.Create(ctx, core.NewTransaction{Description: "Rent", Amount: decimal.RequireFromString("900.10")})
			require.NoError(t, err)
			assert.Equal(t, int64(2), rent.ID)

			got, err := repo.Get(ctx, rent.ID)
			require.NoError(t, err)
			assert.Equal(t, "Rent", got.Description)
			assert.True(t, got.Amount.Equal(decimal.RequireFromString("900.1")))

			_, err = repo.Get(ctx, 99)
			assert.ErrorIs(t, err, ErrNotFound)

			list, err = repo.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, int64(1), list[0].ID)
			assert.Equal(t, int64(2), list[1].ID)
			assert.Equal(t, "4.50", list[0].Amount.StringFixed(2))
		})
	}
}

func TestRepositoryOrderingBeyondNineIDs(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			repo := open(t)
			defer repo.Close()
			ctx := context.Background()

			for i := 0; i < 12; i++ {
				_, err := repo.Create(ctx, core.NewTransaction{Description: "item", Amount: decimal.NewFromInt(int64(i + 1))})
				require.NoError(t, err)
			}

			list, err := repo.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 12)
			for i, tx := range list {
				assert.Equal(t, int64(i+1), tx.ID)
			}
		})
	}
}

func TestMemoryRepositoryConcurrentCreate(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, core.NewTransaction{Description: "x", Amount: decimal.NewFromInt(1)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 50)
	assert.Equal(t, int64(50), list[49].ID)
}

func TestSQLiteRepositoryPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")
	ctx := context.Background()

	repo, err := NewSQLiteRepository(path, nil)
	require.NoError(t, err)
	_, err = repo.Create(ctx, core.NewTransaction{Description: "Coffee", Amount: decimal.RequireFromString("4.5")})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	reopened, err := NewSQLiteRepository(path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	list, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Coffee", list[0].Description)
}

func TestSQLiteRepositoryPing(t *testing.T) {
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"), nil)
	require.NoError(t, err)

	var p Pinger = repo
	require.NoError(t, p.Ping(context.Background()))

	require.NoError(t, repo.Close())
	assert.Error(t, p.Ping(context.Background()))
}
