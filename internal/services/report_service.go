package services

import (
	"context"
	"fmt"
	"sort"

	"ledger/internal/core"
	"ledger/internal/currency"

	"github.com/shopspring/decimal"
)

// ReportService builds monthly reports and category breakdowns. Every call
// fetches the rate snapshot once and threads it through each conversion, so
// a report is consistent with exactly one snapshot, whichever one was live
// when the report started, never a mix.
type ReportService struct {
	store Store
}

func NewReportService(store Store) *ReportService {
	return &ReportService{store: store}
}

// GetReport returns every cost of the given period with its original sum and
// currency, plus a grand total converted into target. Conversions are
// recomputed from the current snapshot on every call and never written back:
// the ledger is deliberately not a point-in-time accounting system.
//
// With no snapshot stored at all, sums pass through unconverted and the
// report's Converted flag is false. A currency missing from an existing
// snapshot is a hard failure instead: an authoritative table silently
// falling back to identity would produce misleading totals.
func (s *ReportService) GetReport(ctx context.Context, year, month int, target string) (core.Report, error) {
	if err := core.ValidatePeriod(year, month); err != nil {
		return core.Report{}, err
	}
	target = currency.NormalizeCode(target)

	snap, err := s.store.GetLatestRates(ctx)
	if err != nil {
		return core.Report{}, fmt.Errorf("load rate snapshot: %w", err)
	}
	var table currency.Table
	if snap != nil {
		table = snap.Table
	}

	records, err := s.store.ListCostsByMonth(ctx, year, month)
	if err != nil {
		return core.Report{}, fmt.Errorf("list costs: %w", err)
	}

	costs := make([]core.CostFields, 0, len(records))
	total := decimal.Zero
	for _, rec := range records {
		converted, err := currency.Convert(rec.Sum, rec.Currency, target, table)
		if err != nil {
			return core.Report{}, fmt.Errorf("convert cost %d (%s -> %s): %w", rec.ID, rec.Currency, target, err)
		}
		total = total.Add(converted)
		costs = append(costs, rec.Fields())
	}

	return core.Report{
		Year:      year,
		Month:     month,
		Costs:     costs,
		Total:     core.Total{Currency: target, Total: total.Round(2)},
		Converted: snap != nil,
	}, nil
}

// CategoryBreakdown groups the same converted amounts by raw category string
// (case-sensitive, no normalization) and sums within each group. Rows come
// back sorted by category for stable output.
func (s *ReportService) CategoryBreakdown(ctx context.Context, year, month int, target string) ([]core.CategoryTotal, error) {
	if err := core.ValidatePeriod(year, month); err != nil {
		return nil, err
	}
	target = currency.NormalizeCode(target)

	snap, err := s.store.GetLatestRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rate snapshot: %w", err)
	}
	var table currency.Table
	if snap != nil {
		table = snap.Table
	}

	records, err := s.store.ListCostsByMonth(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("list costs: %w", err)
	}

	sums := make(map[string]decimal.Decimal)
	for _, rec := range records {
		converted, err := currency.Convert(rec.Sum, rec.Currency, target, table)
		if err != nil {
			return nil, fmt.Errorf("convert cost %d (%s -> %s): %w", rec.ID, rec.Currency, target, err)
		}
		sums[rec.Category] = sums[rec.Category].Add(converted)
	}

	breakdown := make([]core.CategoryTotal, 0, len(sums))
	for category, sum := range sums {
		breakdown = append(breakdown, core.CategoryTotal{
			Category: category,
			Total:    sum.Round(2),
		})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		return breakdown[i].Category < breakdown[j].Category
	})

	return breakdown, nil
}

// Convert converts an amount between two codes against the current snapshot,
// so views can recompute conversions without re-querying costs.
func (s *ReportService) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	snap, err := s.store.GetLatestRates(ctx)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("load rate snapshot: %w", err)
	}
	var table currency.Table
	if snap != nil {
		table = snap.Table
	}
	return currency.Convert(amount, from, to, table)
}
