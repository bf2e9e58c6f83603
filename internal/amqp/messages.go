package amqp

import (
	"encoding/json"
	"time"

	"ledger/internal/core"
)

// CostRecordedMessage announces a freshly persisted cost record. Sum travels
// as text to keep the decimal exact on the wire.
type CostRecordedMessage struct {
	Sum         string    `json:"sum"`
	Currency    string    `json:"currency"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewCostRecordedMessage builds a message from the stored semantic fields.
func NewCostRecordedMessage(fields core.CostFields) *CostRecordedMessage {
	return &CostRecordedMessage{
		Sum:         fields.Sum.String(),
		Currency:    fields.Currency,
		Category:    fields.Category,
		Description: fields.Description,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *CostRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// CostRecordedMessageFromJSON creates a message from JSON bytes.
func CostRecordedMessageFromJSON(data []byte) (*CostRecordedMessage, error) {
	var msg CostRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
