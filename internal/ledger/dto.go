package ledger

import (
	"encoding/json"
	"strings"

	"datalens/internal/core"
)

// CreateTransactionRequest is the body of POST /transactions.
type CreateTransactionRequest struct {
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
}

// ToNewTransaction applies the input rules. Errors are *core.ValidationError.
func (r CreateTransactionRequest) ToNewTransaction() (core.NewTransaction, error) {
	if strings.TrimSpace(r.Description) == "" {
		return core.NewTransaction{}, core.ErrDescriptionRequired
	}
	amount, err := core.ParseAmount(string(r.Amount))
	if err != nil {
		return core.NewTransaction{}, err
	}
	n := core.NewTransaction{Description: r.Description, Amount: amount}
	return n, n.Validate()
}

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error       string `json:"error"`
	Status      int    `json:"status"`
	Description string `json:"description"`
	RequestID   string `json:"request_id,omitempty"`
}
