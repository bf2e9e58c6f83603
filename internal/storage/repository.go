// Package storage owns the on-disk representation of the ledger: the costs
// collection with its period and category indexes, and the single-row rate
// snapshot. The schema is created on first open and upgraded in place via
// embedded migrations.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"ledger/internal/core"
	"ledger/internal/currency"
	"ledger/internal/log"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// ratesKey is the fixed key of the single rate-snapshot row.
const ratesKey = "latest"

type SQLiteRepository struct {
	db              *sql.DB
	defaultCurrency string

	// now is swappable so tests can pin the write-time stamp.
	now func() time.Time
}

// NewSQLiteRepository opens (or creates, on first run) the ledger store at
// dbPath and brings its schema up to date. defaultCurrency is the code
// assigned to records written without one; empty means currency.DefaultCode.
func NewSQLiteRepository(dbPath, defaultCurrency string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:              db,
		defaultCurrency: currency.NormalizeCodeDefault(defaultCurrency, currency.DefaultCode),
		now:             time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// AddCost validates and persists one cost record. The sum must parse to a
// finite positive decimal; the currency code is normalized; creation time
// and the derived year/month/day are stamped here, from wall clock, never
// recomputed later. The insert is a single atomic statement.
//
// Only the caller-supplied semantic fields come back: the surrogate id and
// the stamped fields stay internal so the write-confirmation shape survives
// storage evolution.
func (r *SQLiteRepository) AddCost(ctx context.Context, in core.CostInput) (core.CostFields, error) {
	sum, err := core.ParseSum(in.Sum)
	if err != nil {
		return core.CostFields{}, fmt.Errorf("validate sum %q: %w", in.Sum, err)
	}
	code := currency.NormalizeCodeDefault(in.Currency, r.defaultCurrency)

	now := r.now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO costs (sum, currency, category, description, created_at, year, month, day)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.String(), code, in.Category, in.Description,
		now.UnixMilli(), now.Year(), int(now.Month()), now.Day(),
	)
	if err != nil {
		return core.CostFields{}, fmt.Errorf("insert cost: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.CostFields{}, fmt.Errorf("cost id: %w", err)
	}

	slog.InfoContext(ctx, "Cost saved",
		log.FieldComponent, log.ComponentStorage,
		log.FieldOperation, log.OpAddCost,
		"id", id,
		log.FieldSum, sum.String(),
		log.FieldCurrency, code,
		log.FieldCategory, in.Category,
		log.FieldYear, now.Year(),
		log.FieldMonth, int(now.Month()))

	return core.CostFields{
		Sum:         sum,
		Currency:    code,
		Category:    in.Category,
		Description: in.Description,
	}, nil
}

// SetRates normalizes a raw rates table and replaces the latest snapshot
// wholesale. The upsert is one atomic statement, so a concurrent reader sees
// either the old snapshot or the new one, never a mix.
func (r *SQLiteRepository) SetRates(ctx context.Context, raw map[string]any) (currency.Snapshot, error) {
	table, err := currency.NormalizeTable(raw)
	if err != nil {
		return currency.Snapshot{}, fmt.Errorf("normalize rate table: %w", err)
	}

	payload, err := json.Marshal(table)
	if err != nil {
		return currency.Snapshot{}, fmt.Errorf("encode rate table: %w", err)
	}

	now := r.now()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO rates (key, table_json, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET table_json = excluded.table_json, updated_at = excluded.updated_at`,
		ratesKey, string(payload), now.UnixMilli(),
	)
	if err != nil {
		return currency.Snapshot{}, fmt.Errorf("store rate snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Rate snapshot replaced",
		log.FieldComponent, log.ComponentStorage,
		log.FieldOperation, log.OpSetRates,
		"currencies", len(table))

	return currency.Snapshot{Table: table, UpdatedAt: now}, nil
}

// GetLatestRates returns the normalized snapshot, or nil if none has ever
// been stored. Callers must treat nil as "no conversion possible", not as
// "all rates are 1".
func (r *SQLiteRepository) GetLatestRates(ctx context.Context) (*currency.Snapshot, error) {
	var (
		payload   string
		updatedAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT table_json, updated_at FROM rates WHERE key = ?`, ratesKey,
	).Scan(&payload, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rate snapshot: %w", err)
	}

	var table currency.Table
	if err := json.Unmarshal([]byte(payload), &table); err != nil {
		return nil, fmt.Errorf("decode rate snapshot: %w", err)
	}

	return &currency.Snapshot{
		Table:     table,
		UpdatedAt: time.UnixMilli(updatedAt),
	}, nil
}

// ListCostsByMonth returns every record whose stamped (year, month) matches
// exactly. The query is an equality range on the composite index, not a scan
// of the full ledger.
func (r *SQLiteRepository) ListCostsByMonth(ctx context.Context, year, month int) ([]core.CostRecord, error) {
	if err := core.ValidatePeriod(year, month); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sum, currency, category, description, created_at, year, month, day
		 FROM costs WHERE year = ? AND month = ? ORDER BY id`,
		year, month,
	)
	if err != nil {
		return nil, fmt.Errorf("query costs by month: %w", err)
	}
	defer rows.Close()

	return scanCosts(rows)
}

// ListCostsByCategory returns every record with the given raw category,
// case-sensitive, via the category index.
func (r *SQLiteRepository) ListCostsByCategory(ctx context.Context, category string) ([]core.CostRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sum, currency, category, description, created_at, year, month, day
		 FROM costs WHERE category = ? ORDER BY id`,
		category,
	)
	if err != nil {
		return nil, fmt.Errorf("query costs by category: %w", err)
	}
	defer rows.Close()

	return scanCosts(rows)
}

func scanCosts(rows *sql.Rows) ([]core.CostRecord, error) {
	var records []core.CostRecord
	for rows.Next() {
		var (
			rec       core.CostRecord
			sumText   string
			createdAt int64
		)
		if err := rows.Scan(&rec.ID, &sumText, &rec.Currency, &rec.Category,
			&rec.Description, &createdAt, &rec.Year, &rec.Month, &rec.Day); err != nil {
			return nil, fmt.Errorf("scan cost row: %w", err)
		}
		sum, err := decimal.NewFromString(sumText)
		if err != nil {
			return nil, fmt.Errorf("decode stored sum %q: %w", sumText, err)
		}
		rec.Sum = sum
		rec.CreatedAt = time.UnixMilli(createdAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cost rows: %w", err)
	}
	return records, nil
}
