package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ledger/internal/core"
	"ledger/internal/currency"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"), "USD")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func fixedClock(year int, month time.Month, day int) func() time.Time {
	return func() time.Time {
		return time.Date(year, month, day, 12, 30, 0, 0, time.UTC)
	}
}

func TestAddCostStampsAndNormalizes(t *testing.T) {
	repo := newTestRepo(t)
	repo.now = fixedClock(2025, time.March, 14)
	ctx := context.Background()

	fields, err := repo.AddCost(ctx, core.CostInput{
		Sum:         "12,50",
		Currency:    " euro ",
		Category:    "Food",
		Description: "lunch",
	})
	require.NoError(t, err)
	require.Equal(t, "EUR", fields.Currency)
	require.True(t, fields.Sum.Equal(decimal.RequireFromString("12.5")), "sum = %s", fields.Sum)
	require.Equal(t, "Food", fields.Category)
	require.Equal(t, "lunch", fields.Description)

	records, err := repo.ListCostsByMonth(ctx, 2025, 3)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	require.NotZero(t, rec.ID)
	require.Equal(t, 2025, rec.Year)
	require.Equal(t, 3, rec.Month)
	require.Equal(t, 14, rec.Day)
	require.Equal(t, repo.now().UnixMilli(), rec.CreatedAt.UnixMilli())
	require.Equal(t, "EUR", rec.Currency)
	require.True(t, rec.Sum.Equal(decimal.RequireFromString("12.5")))
}

func TestAddCostRejectsInvalidSums(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, sum := range []string{"0", "-5", "NaN", "abc", ""} {
		_, err := repo.AddCost(ctx, core.CostInput{Sum: sum, Currency: "USD"})
		require.ErrorIs(t, err, core.ErrInvalidSum, "sum %q must be rejected", sum)
	}

	records, err := repo.ListCostsByMonth(ctx, time.Now().Year(), int(time.Now().Month()))
	require.NoError(t, err)
	require.Empty(t, records, "rejected sums must not be persisted")
}

func TestAddCostDefaultsCurrency(t *testing.T) {
	repo := newTestRepo(t)
	repo.now = fixedClock(2025, time.June, 1)

	fields, err := repo.AddCost(context.Background(), core.CostInput{Sum: "9.99"})
	require.NoError(t, err)
	require.Equal(t, "USD", fields.Currency)
}

func TestGetLatestRatesNilWhenNeverStored(t *testing.T) {
	repo := newTestRepo(t)

	snap, err := repo.GetLatestRates(context.Background())
	require.NoError(t, err)
	require.Nil(t, snap)
}

func TestSetRatesNormalizesAndReplaces(t *testing.T) {
	repo := newTestRepo(t)
	repo.now = fixedClock(2025, time.June, 1)
	ctx := context.Background()

	snap, err := repo.SetRates(ctx, map[string]any{
		"usd":  1,
		"GBP":  1.8,
		"EURO": 0.9,
		"EUR":  0.7,
	})
	require.NoError(t, err)
	require.NotContains(t, snap.Table, "EURO", "alias must not survive")
	require.True(t, snap.Table["EUR"].Equal(decimal.RequireFromString("0.7")), "canonical value must win")

	stored, err := repo.GetLatestRates(ctx)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, snap.Table.Codes(), stored.Table.Codes())
	require.True(t, stored.Table["GBP"].Equal(decimal.RequireFromString("1.8")))
	require.False(t, stored.UpdatedAt.IsZero())

	// Replacement is wholesale: the old table's codes disappear.
	_, err = repo.SetRates(ctx, map[string]any{"USD": 1, "ILS": 3.4})
	require.NoError(t, err)

	latest, err := repo.GetLatestRates(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"ILS", "USD"}, latest.Table.Codes())
}

func TestSetRatesWrappedShape(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.SetRates(ctx, map[string]any{
		"base":  "USD",
		"rates": map[string]any{"GBP": 1.8, "EUR": 0.7},
	})
	require.NoError(t, err)

	snap, err := repo.GetLatestRates(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.True(t, snap.Table["USD"].Equal(decimal.NewFromInt(1)))

	// The stored canonical table must convert exactly like the wrapped one.
	got, err := currency.Convert(decimal.NewFromInt(10), "EUR", "GBP", snap.Table)
	require.NoError(t, err)
	require.True(t, got.Equal(decimal.RequireFromString("25.71")), "got %s", got)
}

func TestSetRatesRejectsMalformedTables(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.SetRates(ctx, nil)
	require.ErrorIs(t, err, currency.ErrInvalidTable)

	_, err = repo.SetRates(ctx, map[string]any{"USD": "one"})
	require.ErrorIs(t, err, currency.ErrInvalidTable)

	_, err = repo.SetRates(ctx, map[string]any{"USD": -2})
	require.ErrorIs(t, err, currency.ErrInvalidRate)

	snap, err := repo.GetLatestRates(ctx)
	require.NoError(t, err)
	require.Nil(t, snap, "rejected tables must not be persisted")
}

func TestListCostsByMonthUsesExactPeriod(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	repo.now = fixedClock(2025, time.March, 10)
	_, err := repo.AddCost(ctx, core.CostInput{Sum: "1", Currency: "USD", Category: "a"})
	require.NoError(t, err)

	repo.now = fixedClock(2025, time.April, 2)
	_, err = repo.AddCost(ctx, core.CostInput{Sum: "2", Currency: "USD", Category: "b"})
	require.NoError(t, err)

	repo.now = fixedClock(2024, time.March, 2)
	_, err = repo.AddCost(ctx, core.CostInput{Sum: "3", Currency: "USD", Category: "c"})
	require.NoError(t, err)

	records, err := repo.ListCostsByMonth(ctx, 2025, 3)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "a", records[0].Category)

	_, err = repo.ListCostsByMonth(ctx, 2025, 13)
	require.ErrorIs(t, err, core.ErrInvalidMonth)
}

func TestListCostsByCategoryIsCaseSensitive(t *testing.T) {
	repo := newTestRepo(t)
	repo.now = fixedClock(2025, time.May, 5)
	ctx := context.Background()

	for _, cat := range []string{"Food", "food", "Food"} {
		_, err := repo.AddCost(ctx, core.CostInput{Sum: "1", Currency: "USD", Category: cat})
		require.NoError(t, err)
	}

	records, err := repo.ListCostsByCategory(ctx, "Food")
	require.NoError(t, err)
	require.Len(t, records, 2)

	records, err = repo.ListCostsByCategory(ctx, "food")
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestRecordsAreAssignedIncreasingIDs(t *testing.T) {
	repo := newTestRepo(t)
	repo.now = fixedClock(2025, time.May, 5)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.AddCost(ctx, core.CostInput{Sum: "1", Currency: "USD"})
		require.NoError(t, err)
	}

	records, err := repo.ListCostsByMonth(ctx, 2025, 5)
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Less(t, records[0].ID, records[1].ID)
	require.Less(t, records[1].ID, records[2].ID)
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.db")
	ctx := context.Background()

	repo, err := NewSQLiteRepository(path, "USD")
	require.NoError(t, err)
	repo.now = fixedClock(2025, time.July, 1)

	_, err = repo.AddCost(ctx, core.CostInput{Sum: "42", Currency: "ILS", Category: "Travel"})
	require.NoError(t, err)
	_, err = repo.SetRates(ctx, map[string]any{"USD": 1, "ILS": 3.4})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	// Second open must not re-create or wipe anything.
	reopened, err := NewSQLiteRepository(path, "USD")
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.ListCostsByMonth(ctx, 2025, 7)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.True(t, records[0].Sum.Equal(decimal.NewFromInt(42)))

	snap, err := reopened.GetLatestRates(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)

	version, err := SchemaVersion(path)
	require.NoError(t, err)
	require.Equal(t, uint(1), version)
}

func TestCloseIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.Close())
	require.NoError(t, repo.Close())
}
