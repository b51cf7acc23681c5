package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datalens/internal/core"
)

func TestListTransactions(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/transactions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"description":"Coffee","amount":4.5},{"id":2,"description":"Rent","amount":900}]`))
	}))
	defer mockServer.Close()

	client := NewClient(mockServer.URL+"/", nil)
	txs, err := client.ListTransactions(context.Background())

	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, int64(1), txs[0].ID)
	assert.Equal(t, "Coffee", txs[0].Description)
	assert.True(t, decimal.RequireFromString("4.5").Equal(txs[0].Amount))
	assert.Equal(t, "Rent", txs[1].Description)
}

func TestListTransactionsEmptyAndNull(t *testing.T) {
	for _, body := range []string{`[]`, `null`} {
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))

		txs, err := NewClient(mockServer.URL, nil).ListTransactions(context.Background())
		mockServer.Close()

		require.NoError(t, err, body)
		assert.NotNil(t, txs, body)
		assert.Empty(t, txs, body)
	}
}

func TestListTransactionsFailures(t *testing.T) {
	t.Run("non success status", func(t *testing.T) {
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		}))
		defer mockServer.Close()

		_, err := NewClient(mockServer.URL, nil).ListTransactions(context.Background())

		var reqErr *RequestError
		require.True(t, errors.As(err, &reqErr))
		assert.Equal(t, http.StatusServiceUnavailable, reqErr.StatusCode)
		assert.Contains(t, reqErr.Error(), "database unavailable")
	})

	t.Run("malformed body", func(t *testing.T) {
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"not":"a list"}`))
		}))
		defer mockServer.Close()

		_, err := NewClient(mockServer.URL, nil).ListTransactions(context.Background())
		var reqErr *RequestError
		assert.True(t, errors.As(err, &reqErr))
	})

	t.Run("transport failure", func(t *testing.T) {
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := mockServer.URL
		mockServer.Close()

		_, err := NewClient(url, nil).ListTransactions(context.Background())

		var reqErr *RequestError
		require.True(t, errors.As(err, &reqErr))
		assert.Zero(t, reqErr.StatusCode)
	})
}

func TestCreateTransaction(t *testing.T) {
	var received map[string]any
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transactions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":7,"description":"Coffee","amount":4.5}`))
	}))
	defer mockServer.Close()

	err := NewClient(mockServer.URL, nil).CreateTransaction(context.Background(), core.NewTransaction{
		Description: "Coffee",
		Amount:      decimal.RequireFromString("4.5"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Coffee", received["description"])
	assert.Equal(t, 4.5, received["amount"])
}

func TestCreateTransactionAcceptsAnySuccessStatus(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer mockServer.Close()

	err := NewClient(mockServer.URL, nil).CreateTransaction(context.Background(), core.NewTransaction{
		Description: "Coffee",
		Amount:      decimal.NewFromInt(1),
	})
	assert.NoError(t, err)
}

func TestCreateTransactionFailure(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"Invalid amount"}`))
	}))
	defer mockServer.Close()

	err := NewClient(mockServer.URL, nil).CreateTransaction(context.Background(), core.NewTransaction{
		Description: "Coffee",
		Amount:      decimal.NewFromInt(1),
	})

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusUnprocessableEntity, reqErr.StatusCode)
	assert.Equal(t, "create transaction", reqErr.Op)
}
