// Package worker runs the export side of the service: it consumes ledger
// events and keeps the external report copy current.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bookkeep/internal/amqp"
	"bookkeep/internal/retry"
)

// EventSource delivers ledger events until ctx ends or the connection drops.
type EventSource interface {
	ConsumeLedgerEvents(ctx context.Context, handler func(context.Context, *amqp.LedgerEvent) error) error
}

// EventHandler is implemented by services.ExportProcessor.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error
}

// ExportWorker keeps a consumer attached to the event source, resubscribing
// with backoff whenever consumption stops with an error.
type ExportWorker struct {
	source  EventSource
	handler EventHandler
	backoff retry.Policy
}

func NewExportWorker(source EventSource, handler EventHandler) *ExportWorker {
	return &ExportWorker{
		source:  source,
		handler: handler,
		backoff: retry.Policy{BaseDelay: time.Second, MaxDelay: 30 * time.Second},
	}
}

// Run blocks until ctx is done.
func (w *ExportWorker) Run(ctx context.Context) error {
	attempt := 0
	for {
		err := w.source.ConsumeLedgerEvents(ctx, w.handle)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			err = errors.New("consumer stopped")
		}

		delay := w.backoff.Backoff(attempt)
		attempt++
		slog.WarnContext(ctx, "Ledger event consumer stopped, resubscribing",
			"error", err,
			"attempt", attempt,
			"retry_in", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (w *ExportWorker) handle(ctx context.Context, ev *amqp.LedgerEvent) error {
	start := time.Now()
	if err := w.handler.HandleEvent(ctx, ev); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Ledger event exported",
		"kind", ev.Kind,
		"month", ev.Key().String(),
		"duration", time.Since(start))
	return nil
}
