// Package ports declares the outbound interfaces the services depend on.
package ports

import (
	"context"

	"bookkeep/internal/core"
	"bookkeep/internal/ledger"
)

type (
	// EntryStore persists ledger entries. Lists are ordered by creation
	// time, oldest first.
	EntryStore interface {
		AddEntry(ctx context.Context, e core.LedgerEntry) (core.LedgerEntry, error)
		// DeleteEntry removes the entry and returns it; core.ErrNotFound when absent.
		DeleteEntry(ctx context.Context, id string) (core.LedgerEntry, error)
		ListEntries(ctx context.Context) ([]core.LedgerEntry, error)
		ListEntriesByMonth(ctx context.Context, key core.MonthKey) ([]core.LedgerEntry, error)
	}

	PaymentStore interface {
		AddPayment(ctx context.Context, p core.Payment) (core.Payment, error)
		DeletePayment(ctx context.Context, id string) (core.Payment, error)
		ListPaymentsByMonth(ctx context.Context, key core.MonthKey) ([]core.Payment, error)
	}

	// CarryForwardStore keeps at most one record per month.
	CarryForwardStore interface {
		// GetCarryForward reports false when the month has no record.
		GetCarryForward(ctx context.Context, key core.MonthKey) (core.CarryForward, bool, error)
		// UpsertCarryForward replaces the month's record atomically.
		UpsertCarryForward(ctx context.Context, cf core.CarryForward) error
	}

	// QueueStore persists the payment queue. Items get a monotonically
	// increasing Seq on insert.
	QueueStore interface {
		AddQueueItem(ctx context.Context, q core.QueueItem) (core.QueueItem, error)
		GetQueueItem(ctx context.Context, id string) (core.QueueItem, error)
		UpdateQueueItem(ctx context.Context, q core.QueueItem) error
		DeleteQueueItem(ctx context.Context, id string) (core.QueueItem, error)
		ListQueueByMonth(ctx context.Context, key core.MonthKey) ([]core.QueueItem, error)
	}

	// Store is a complete backend.
	Store interface {
		EntryStore
		PaymentStore
		CarryForwardStore
		QueueStore
		Ping(ctx context.Context) error
		Close() error
	}

	// ReportExporter writes rendered reports to an external destination.
	ReportExporter interface {
		ExportMonthReport(ctx context.Context, rep ledger.MonthReport) error
		ExportPaymentReport(ctx context.Context, rep ledger.PaymentReport) error
		ExportQueueReport(ctx context.Context, rep ledger.QueueReport) error
	}
)
