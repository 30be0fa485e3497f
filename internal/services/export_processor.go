package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bookkeep/internal/amqp"
	"bookkeep/internal/core"
	"bookkeep/internal/ledger"
	"bookkeep/internal/ports"
)

// ExportProcessorConfig holds configuration for the export processor.
type ExportProcessorConfig struct {
	// Interval between full exports of the current month (default: 15m).
	Interval time.Duration
}

func DefaultExportProcessorConfig() ExportProcessorConfig {
	return ExportProcessorConfig{Interval: 15 * time.Minute}
}

// ExportProcessor rebuilds reports from the store and hands them to an
// exporter, on demand for ledger events and periodically for the current
// month.
type ExportProcessor struct {
	store    ports.Store
	exporter ports.ReportExporter
	config   ExportProcessorConfig
	now      func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewExportProcessor(store ports.Store, exporter ports.ReportExporter, config ExportProcessorConfig) *ExportProcessor {
	if config.Interval <= 0 {
		config.Interval = DefaultExportProcessorConfig().Interval
	}
	return &ExportProcessor{
		store:    store,
		exporter: exporter,
		config:   config,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// HandleEvent exports the part of the month the event names.
func (p *ExportProcessor) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	key := ev.Key()
	switch ev.Kind {
	case amqp.KindEntries:
		return p.ExportEntries(ctx, key)
	case amqp.KindPayments:
		return p.ExportPayments(ctx, key)
	case amqp.KindQueue:
		return p.ExportQueue(ctx, key)
	}
	return fmt.Errorf("unknown event kind %q", ev.Kind)
}

func (p *ExportProcessor) ExportEntries(ctx context.Context, key core.MonthKey) error {
	entries, err := p.store.ListEntriesByMonth(ctx, key)
	if err != nil {
		return fmt.Errorf("list entries %s: %w", key, err)
	}
	if err := p.exporter.ExportMonthReport(ctx, ledger.BuildMonthReport(key, entries)); err != nil {
		return fmt.Errorf("export month report %s: %w", key, err)
	}
	slog.InfoContext(ctx, "Exported month report", "month", key.String(), "entries", len(entries))
	return nil
}

func (p *ExportProcessor) ExportPayments(ctx context.Context, key core.MonthKey) error {
	payments, err := p.store.ListPaymentsByMonth(ctx, key)
	if err != nil {
		return fmt.Errorf("list payments %s: %w", key, err)
	}
	cf, _, err := p.store.GetCarryForward(ctx, key)
	if err != nil {
		return fmt.Errorf("get carry forward %s: %w", key, err)
	}
	if err := p.exporter.ExportPaymentReport(ctx, ledger.BuildPaymentReport(key, payments, cf.Amount)); err != nil {
		return fmt.Errorf("export payment report %s: %w", key, err)
	}
	slog.InfoContext(ctx, "Exported payment report", "month", key.String(), "payments", len(payments))
	return nil
}

func (p *ExportProcessor) ExportQueue(ctx context.Context, key core.MonthKey) error {
	items, err := p.store.ListQueueByMonth(ctx, key)
	if err != nil {
		return fmt.Errorf("list queue %s: %w", key, err)
	}
	if err := p.exporter.ExportQueueReport(ctx, ledger.BuildQueueReport(key, items)); err != nil {
		return fmt.Errorf("export queue report %s: %w", key, err)
	}
	slog.InfoContext(ctx, "Exported queue report", "month", key.String(), "items", len(items))
	return nil
}

// ExportAll exports every report of the month and joins the failures.
func (p *ExportProcessor) ExportAll(ctx context.Context, key core.MonthKey) error {
	return errors.Join(
		p.ExportEntries(ctx, key),
		p.ExportPayments(ctx, key),
		p.ExportQueue(ctx, key),
	)
}

// Start begins the periodic export loop. Returns an error if already running.
func (p *ExportProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("export processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Export processor started", "interval", p.config.Interval)
	return nil
}

// Stop signals the loop and waits for it or for ctx.
func (p *ExportProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Export processor stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Export processor stop timed out")
		return ctx.Err()
	}
}

func (p *ExportProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *ExportProcessor) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.exportCurrent(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.exportCurrent(ctx)
		}
	}
}

func (p *ExportProcessor) exportCurrent(ctx context.Context) {
	key := core.MonthOf(p.now())
	if err := p.ExportAll(ctx, key); err != nil {
		slog.ErrorContext(ctx, "Periodic export failed", "month", key.String(), "error", err)
	}
}
