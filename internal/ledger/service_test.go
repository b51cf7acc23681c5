package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"datalens/internal/core"
	"datalens/internal/storage"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishTransactionCreated(ctx context.Context, tx core.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *mockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

type failingRepo struct {
	storage.Repository
	err error
}

func (f failingRepo) Create(context.Context, core.NewTransaction) (core.Transaction, error) {
	return core.Transaction{}, f.err
}

func (f failingRepo) List(context.Context) ([]core.Transaction, error) {
	return nil, f.err
}

func (f failingRepo) Close() error { return nil }

func coffee() core.NewTransaction {
	return core.NewTransaction{Description: "Coffee", Amount: decimal.RequireFromString("4.5")}
}

func TestServiceCreatePublishesEvent(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("PublishTransactionCreated", mock.Anything, mock.MatchedBy(func(tx core.Transaction) bool {
		return tx.ID == 1 && tx.Description == "Coffee"
	})).Return(nil).Once()

	svc := NewService(storage.NewMemoryRepository(), pub, nil)
	tx, err := svc.Create(context.Background(), coffee())

	require.NoError(t, err)
	assert.Equal(t, int64(1), tx.ID)
	pub.AssertExpectations(t)
}

func TestServiceCreateSurvivesPublishFailure(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("PublishTransactionCreated", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	svc := NewService(storage.NewMemoryRepository(), pub, nil)
	tx, err := svc.Create(context.Background(), coffee())
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "Coffee", got.Description)
}

func TestServiceCreateRejectsInvalidInput(t *testing.T) {
	pub := new(mockPublisher)
	svc := NewService(storage.NewMemoryRepository(), pub, nil)

	_, err := svc.Create(context.Background(), core.NewTransaction{Description: " ", Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, core.ErrDescriptionRequired)

	_, err = svc.Create(context.Background(), core.NewTransaction{Description: "x", Amount: decimal.Zero})
	assert.ErrorIs(t, err, core.ErrAmountNotPositive)

	pub.AssertNotCalled(t, "PublishTransactionCreated", mock.Anything, mock.Anything)
}

func TestServiceCreateStorageFailureSkipsPublish(t *testing.T) {
	pub := new(mockPublisher)
	svc := NewService(failingRepo{err: errors.New("disk full")}, pub, nil)

	_, err := svc.Create(context.Background(), coffee())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	pub.AssertNotCalled(t, "PublishTransactionCreated", mock.Anything, mock.Anything)
}

func TestServiceGetNotFound(t *testing.T) {
	svc := NewService(storage.NewMemoryRepository(), nil, nil)
	_, err := svc.Get(context.Background(), 42)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestServiceCloseClosesPublisher(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Close").Return(nil).Once()

	svc := NewService(storage.NewMemoryRepository(), pub, nil)
	require.NoError(t, svc.Close())
	pub.AssertExpectations(t)
}
