package services

import (
	"context"
	"log/slog"

	"bookkeep/internal/amqp"
	"bookkeep/internal/core"
)

// EventPublisher announces that a month changed. *amqp.Client implements it.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error
}

// publish never fails the caller: the write already happened and the
// worker's periodic export catches up on lost events.
func publish(ctx context.Context, events EventPublisher, kind amqp.EventKind, key core.MonthKey) {
	if events == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping ledger event", "kind", kind)
		return
	}
	if err := events.PublishLedgerEvent(ctx, amqp.NewLedgerEvent(kind, key)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", kind,
			"month", key.String(),
			"error", err)
	}
}

// monthOfDate returns the month of an ISO date; ok is false when malformed.
func monthOfDate(date string) (core.MonthKey, bool) {
	t, err := core.ParseDate(date)
	if err != nil {
		return core.MonthKey{}, false
	}
	return core.MonthOf(t), true
}
