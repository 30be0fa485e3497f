package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bookkeep/internal/amqp"
	"bookkeep/internal/core"
	"bookkeep/internal/ledger"
	"bookkeep/internal/ports"
)

// EntryService records daily ledger entries and serves the aggregated views.
type EntryService struct {
	store  ports.EntryStore
	events EventPublisher
	now    func() time.Time
}

func NewEntryService(store ports.EntryStore, events EventPublisher) *EntryService {
	return &EntryService{
		store:  store,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Add validates and stores an entry, then returns the refreshed report of
// its month. A nil report means the refresh failed after the write landed.
func (s *EntryService) Add(ctx context.Context, in core.EntryInput) (core.LedgerEntry, *ledger.MonthReport, error) {
	if err := in.Validate(); err != nil {
		return core.LedgerEntry{}, nil, err
	}

	saved, err := s.store.AddEntry(ctx, in.Entry("", s.now()))
	if err != nil {
		return core.LedgerEntry{}, nil, fmt.Errorf("save entry: %w", err)
	}
	key, _ := monthOfDate(saved.Date)

	slog.InfoContext(ctx, "Ledger entry added",
		"id", saved.ID,
		"date", saved.Date,
		"title", saved.Title)

	publish(ctx, s.events, amqp.KindEntries, key)

	rep, err := s.MonthReport(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "Failed to refresh month report after add", "month", key.String(), "error", err)
		return saved, nil, nil
	}
	return saved, &rep, nil
}

// Delete removes an entry; no other record is adjusted.
func (s *EntryService) Delete(ctx context.Context, id string) (core.LedgerEntry, error) {
	removed, err := s.store.DeleteEntry(ctx, id)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("delete entry %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Ledger entry deleted", "id", id, "date", removed.Date)

	if key, ok := monthOfDate(removed.Date); ok {
		publish(ctx, s.events, amqp.KindEntries, key)
	}
	return removed, nil
}

// List returns all entries in insertion order restricted to [from, to]
// (either bound may be empty) with their daily rollups and grand total.
func (s *EntryService) List(ctx context.Context, from, to string) (ledger.RangeView, error) {
	if from != "" {
		if err := core.ValidateDate(from); err != nil {
			return ledger.RangeView{}, core.Invalid("from", err)
		}
	}
	if to != "" {
		if err := core.ValidateDate(to); err != nil {
			return ledger.RangeView{}, core.Invalid("to", err)
		}
	}
	entries, err := s.store.ListEntries(ctx)
	if err != nil {
		return ledger.RangeView{}, fmt.Errorf("list entries: %w", err)
	}
	return ledger.BuildRangeView(entries, from, to), nil
}

// MonthReport always reads the month afresh from the store.
func (s *EntryService) MonthReport(ctx context.Context, key core.MonthKey) (ledger.MonthReport, error) {
	if err := key.Validate(); err != nil {
		return ledger.MonthReport{}, core.Invalid("month", err)
	}
	entries, err := s.store.ListEntriesByMonth(ctx, key)
	if err != nil {
		return ledger.MonthReport{}, fmt.Errorf("list entries for %s: %w", key, err)
	}
	return ledger.BuildMonthReport(key, entries), nil
}
