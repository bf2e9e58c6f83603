package services

import (
	"context"
	"errors"
	"testing"

	"ledger/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	published []core.CostFields
	err       error
	closed    bool
}

func (f *fakePublisher) PublishCostRecorded(_ context.Context, fields core.CostFields) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, fields)
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func TestAddCostPublishesEvent(t *testing.T) {
	store := &fakeStore{}
	events := &fakePublisher{}
	svc := NewLedgerService(store, events)

	fields, err := svc.AddCost(context.Background(), core.CostInput{
		Sum:      "12.50",
		Currency: "euro",
		Category: "Food",
	})
	require.NoError(t, err)
	require.Equal(t, "EUR", fields.Currency)
	require.True(t, fields.Sum.Equal(decimal.RequireFromString("12.50")))

	require.Len(t, events.published, 1)
	require.Equal(t, fields, events.published[0])
}

func TestAddCostPublishFailureIsNotFatal(t *testing.T) {
	store := &fakeStore{}
	events := &fakePublisher{err: errors.New("broker gone")}
	svc := NewLedgerService(store, events)

	fields, err := svc.AddCost(context.Background(), core.CostInput{Sum: "5", Currency: "USD", Category: "Fun"})
	require.NoError(t, err, "the record is durable, a dropped event must not fail the write")
	require.Equal(t, "USD", fields.Currency)
	require.Len(t, store.added, 1)
}

func TestAddCostStoreErrorPropagates(t *testing.T) {
	store := &fakeStore{addErr: errors.New("disk full")}
	events := &fakePublisher{}
	svc := NewLedgerService(store, events)

	_, err := svc.AddCost(context.Background(), core.CostInput{Sum: "5", Currency: "USD"})
	require.Error(t, err)
	require.Empty(t, events.published, "no event for a failed write")
}

func TestAddCostWithoutPublisher(t *testing.T) {
	svc := NewLedgerService(&fakeStore{}, nil)

	fields, err := svc.AddCost(context.Background(), core.CostInput{Sum: "3", Currency: "USD", Category: "Fun"})
	require.NoError(t, err)
	require.Equal(t, "USD", fields.Currency)
}

func TestListCostsByCategoryPassesRawRecords(t *testing.T) {
	store := &fakeStore{
		records: []core.CostRecord{
			record(1, "50", "USD", "Food", 2025, 6),
			record(2, "10", "EUR", "food", 2025, 6),
		},
	}
	svc := NewLedgerService(store, nil)

	records, err := svc.ListCostsByCategory(context.Background(), "Food")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, int64(1), records[0].ID)
	require.Equal(t, "USD", records[0].Currency)
}

func TestSetRatesRejectsMalformedTable(t *testing.T) {
	store := &fakeStore{}
	svc := NewLedgerService(store, nil)

	_, err := svc.SetRates(context.Background(), map[string]any{"USD": "one"})
	require.Error(t, err)
	require.Nil(t, store.snap)

	snap, err := svc.SetRates(context.Background(), map[string]any{"USD": 1, "GBP": 1.8})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"USD", "GBP"}, snap.Table.Codes())
}

func TestGetLatestRatesNilWhenUnset(t *testing.T) {
	svc := NewLedgerService(&fakeStore{}, nil)

	snap, err := svc.GetLatestRates(context.Background())
	require.NoError(t, err)
	require.Nil(t, snap)
}

func TestCloseReleasesStoreAndPublisher(t *testing.T) {
	store := &fakeStore{}
	events := &fakePublisher{}
	svc := NewLedgerService(store, events)

	require.NoError(t, svc.Close())
	require.True(t, store.closed)
	require.True(t, events.closed)
}
