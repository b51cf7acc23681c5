package amqp

import (
	"encoding/json"
	"time"

	"datalens/internal/core"
)

// RoutingKeyTransactionCreated is the event name carried in the message type.
const RoutingKeyTransactionCreated = "transaction.created"

// TransactionCreatedMessage announces a transaction accepted by the ledger.
// Amount travels as a JSON number.
type TransactionCreatedMessage struct {
	ID          int64       `json:"id"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	Timestamp   time.Time   `json:"timestamp"`
}

func NewTransactionCreatedMessage(tx core.Transaction) *TransactionCreatedMessage {
	return &TransactionCreatedMessage{
		ID:          tx.ID,
		Description: tx.Description,
		Amount:      json.Number(tx.Amount.String()),
		Timestamp:   time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionCreatedMessageFromJSON(data []byte) (*TransactionCreatedMessage, error) {
	var msg TransactionCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
