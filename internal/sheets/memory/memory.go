// Package memory is a ReportExporter that keeps the latest export of every
// report in process. It stands in for Google Sheets in development and tests.
package memory

import (
	"context"
	"sync"

	"bookkeep/internal/core"
	"bookkeep/internal/ledger"
)

type Exporter struct {
	mu       sync.Mutex
	months   map[core.MonthKey]ledger.MonthReport
	payments map[core.MonthKey]ledger.PaymentReport
	queues   map[core.MonthKey]ledger.QueueReport
	exports  int
}

func New() *Exporter {
	return &Exporter{
		months:   make(map[core.MonthKey]ledger.MonthReport),
		payments: make(map[core.MonthKey]ledger.PaymentReport),
		queues:   make(map[core.MonthKey]ledger.QueueReport),
	}
}

func (e *Exporter) ExportMonthReport(_ context.Context, rep ledger.MonthReport) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.months[rep.Month] = rep
	e.exports++
	return nil
}

func (e *Exporter) ExportPaymentReport(_ context.Context, rep ledger.PaymentReport) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.payments[rep.Month] = rep
	e.exports++
	return nil
}

func (e *Exporter) ExportQueueReport(_ context.Context, rep ledger.QueueReport) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queues[rep.Month] = rep
	e.exports++
	return nil
}

func (e *Exporter) MonthReport(key core.MonthKey) (ledger.MonthReport, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rep, ok := e.months[key]
	return rep, ok
}

func (e *Exporter) PaymentReport(key core.MonthKey) (ledger.PaymentReport, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rep, ok := e.payments[key]
	return rep, ok
}

func (e *Exporter) QueueReport(key core.MonthKey) (ledger.QueueReport, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rep, ok := e.queues[key]
	return rep, ok
}

// Exports counts every export call so far.
func (e *Exporter) Exports() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exports
}
