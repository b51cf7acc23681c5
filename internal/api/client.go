// Package api is the HTTP client for the ledger REST backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"datalens/internal/core"
)

const (
	transactionsPath = "/transactions"

	// DefaultBaseURL is the local ledger endpoint.
	DefaultBaseURL = "http://127.0.0.1:8000"

	// maxErrorBody caps how much of a failed response is kept for diagnostics.
	maxErrorBody = 4 << 10
)

// Client talks to the two transaction endpoints of the ledger backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a ledger client. A nil httpClient gets a 10s timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 10 * time.Second,
		}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListTransactions issues GET /transactions and decodes the ordered list.
func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	const op = "list transactions"
	url := c.baseURL + transactionsPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &RequestError{Op: op, Method: http.MethodGet, URL: url, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Op: op, Method: http.MethodGet, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, statusError(op, req, resp)
	}

	var txs []core.Transaction
	if err := json.NewDecoder(resp.Body).Decode(&txs); err != nil {
		return nil, &RequestError{Op: op, Method: http.MethodGet, URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	return txs, nil
}

// CreateTransaction issues POST /transactions. The response body is drained
// but not decoded.
func (c *Client) CreateTransaction(ctx context.Context, tx core.NewTransaction) error {
	const op = "create transaction"
	url := c.baseURL + transactionsPath

	body, err := json.Marshal(tx)
	if err != nil {
		return &RequestError{Op: op, Method: http.MethodPost, URL: url, Err: fmt.Errorf("marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &RequestError{Op: op, Method: http.MethodPost, URL: url, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RequestError{Op: op, Method: http.MethodPost, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return statusError(op, req, resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

func statusError(op string, req *http.Request, resp *http.Response) error {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &RequestError{
		Op:         op,
		Method:     req.Method,
		URL:        req.URL.String(),
		StatusCode: resp.StatusCode,
		Err:        fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))),
	}
}
