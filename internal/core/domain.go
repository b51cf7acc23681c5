package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	MsgDescriptionRequired = "Description is required"
	MsgAmountNotPositive   = "Amount must be a positive number"
)

type (
	// Transaction is a financial record owned by the ledger backend.
	Transaction struct {
		ID          int64
		Description string
		Amount      decimal.Decimal
	}

	// NewTransaction is the payload used to create a Transaction.
	NewTransaction struct {
		Description string
		Amount      decimal.Decimal
	}
)

// ValidationError is a client-side rejection of input, raised before any
// network interaction. Message is meant to be shown to the user as is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is lets errors.Is match validation errors by field.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return t.Field == e.Field
}

var (
	ErrDescriptionRequired = &ValidationError{Field: "description", Message: MsgDescriptionRequired}
	ErrAmountNotPositive   = &ValidationError{Field: "amount", Message: MsgAmountNotPositive}
)

// Validate checks the presence and positivity rules.
func (n NewTransaction) Validate() error {
	if strings.TrimSpace(n.Description) == "" {
		return ErrDescriptionRequired
	}
	if !n.Amount.IsPositive() || !InRange(n.Amount) {
		return ErrAmountNotPositive
	}
	return nil
}

// ValidateInput turns raw form text into a NewTransaction.
// The description is checked first, then the amount.
func ValidateInput(description, amountText string) (NewTransaction, error) {
	if strings.TrimSpace(description) == "" {
		return NewTransaction{}, ErrDescriptionRequired
	}
	amount, err := ParseAmount(amountText)
	if err != nil {
		return NewTransaction{}, err
	}
	return NewTransaction{Description: description, Amount: amount}, nil
}

// wire shapes: amount travels as a JSON number, never as a string
type (
	transactionJSON struct {
		ID          int64       `json:"id"`
		Description string      `json:"description"`
		Amount      json.Number `json:"amount"`
	}

	newTransactionJSON struct {
		Description string      `json:"description"`
		Amount      json.Number `json:"amount"`
	}
)

func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(transactionJSON{
		ID:          t.ID,
		Description: t.Description,
		Amount:      json.Number(t.Amount.String()),
	})
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	var w transactionJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	amount, err := decodeAmount(w.Amount)
	if err != nil {
		return err
	}
	*t = Transaction{ID: w.ID, Description: w.Description, Amount: amount}
	return nil
}

func (n NewTransaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(newTransactionJSON{
		Description: n.Description,
		Amount:      json.Number(n.Amount.String()),
	})
}

func (n *NewTransaction) UnmarshalJSON(data []byte) error {
	var w newTransactionJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	amount, err := decodeAmount(w.Amount)
	if err != nil {
		return err
	}
	*n = NewTransaction{Description: w.Description, Amount: amount}
	return nil
}

var (
	errMissingAmount    = errors.New("missing amount")
	errAmountOutOfRange = errors.New("amount out of range")
)

func decodeAmount(n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Decimal{}, errMissingAmount
	}
	d, err := decimal.NewFromString(string(n))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode amount %q: %w", n, err)
	}
	if !InRange(d) {
		return decimal.Decimal{}, fmt.Errorf("decode amount %q: %w", n, errAmountOutOfRange)
	}
	return d, nil
}
