// Package services orchestrates the ledger store, the currency engine and
// the optional event stream behind the operations the application exposes.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"ledger/internal/core"
	"ledger/internal/currency"
	"ledger/internal/log"
)

// Store is the ledger storage contract the service drives. Implemented by
// storage.SQLiteRepository.
type Store interface {
	AddCost(ctx context.Context, in core.CostInput) (core.CostFields, error)
	SetRates(ctx context.Context, raw map[string]any) (currency.Snapshot, error)
	GetLatestRates(ctx context.Context) (*currency.Snapshot, error)
	ListCostsByMonth(ctx context.Context, year, month int) ([]core.CostRecord, error)
	ListCostsByCategory(ctx context.Context, category string) ([]core.CostRecord, error)
	Close() error
}

// Publisher emits cost-recorded events for external consumers. Implemented
// by amqp.Client; nil disables publishing.
type Publisher interface {
	PublishCostRecorded(ctx context.Context, fields core.CostFields) error
	Close() error
}

// LedgerService owns the write and snapshot operations of the ledger.
type LedgerService struct {
	store  Store
	events Publisher
}

func NewLedgerService(store Store, events Publisher) *LedgerService {
	return &LedgerService{
		store:  store,
		events: events,
	}
}

// AddCost persists one cost record and, when an event publisher is wired,
// announces it. Publishing is best-effort: the record is durable before the
// event goes out, and a failed publish never fails the write.
func (s *LedgerService) AddCost(ctx context.Context, in core.CostInput) (core.CostFields, error) {
	fields, err := s.store.AddCost(ctx, in)
	if err != nil {
		return core.CostFields{}, fmt.Errorf("add cost: %w", err)
	}

	if s.events != nil {
		if err := s.events.PublishCostRecorded(ctx, fields); err != nil {
			slog.ErrorContext(ctx, "Failed to publish cost-recorded event",
				log.FieldComponent, log.ComponentAMQP,
				log.FieldCurrency, fields.Currency,
				log.FieldCategory, fields.Category,
				log.FieldError, err)
		}
	}

	return fields, nil
}

// ListCostsByCategory returns the raw stored records carrying the given
// category, exactly as written (no conversion, no normalization).
func (s *LedgerService) ListCostsByCategory(ctx context.Context, category string) ([]core.CostRecord, error) {
	records, err := s.store.ListCostsByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list costs by category: %w", err)
	}
	return records, nil
}

// SetRates replaces the latest rate snapshot.
func (s *LedgerService) SetRates(ctx context.Context, raw map[string]any) (currency.Snapshot, error) {
	snap, err := s.store.SetRates(ctx, raw)
	if err != nil {
		return currency.Snapshot{}, fmt.Errorf("set rates: %w", err)
	}
	return snap, nil
}

// GetLatestRates returns the current snapshot, or nil when none was ever
// stored.
func (s *LedgerService) GetLatestRates(ctx context.Context) (*currency.Snapshot, error) {
	return s.store.GetLatestRates(ctx)
}

// Close releases the store and, if wired, the event publisher.
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.events != nil {
		if err := s.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("events: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
