package amqp

import (
	"testing"

	"ledger/internal/core"

	"github.com/shopspring/decimal"
)

func TestCostRecordedMessageRoundTrip(t *testing.T) {
	fields := core.CostFields{
		Sum:         decimal.RequireFromString("12.50"),
		Currency:    "EUR",
		Category:    "Food",
		Description: "lunch",
	}

	msg := NewCostRecordedMessage(fields)
	if msg.Sum != "12.5" {
		t.Errorf("Sum = %q, want 12.5", msg.Sum)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error: %v", err)
	}

	got, err := CostRecordedMessageFromJSON(data)
	if err != nil {
		t.Fatalf("CostRecordedMessageFromJSON() error: %v", err)
	}
	if got.Sum != msg.Sum {
		t.Errorf("Sum = %q, want %q", got.Sum, msg.Sum)
	}
	if got.Currency != "EUR" || got.Category != "Food" || got.Description != "lunch" {
		t.Errorf("fields = %+v", got)
	}
	if !got.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, msg.Timestamp)
	}
}

func TestCostRecordedMessageFromInvalidJSON(t *testing.T) {
	if _, err := CostRecordedMessageFromJSON([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
