package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bookkeep/internal/amqp"
	"bookkeep/internal/core"
	"bookkeep/internal/ledger"
	"bookkeep/internal/ports"
)

// QueueInput is the write shape of a queue item.
type QueueInput struct {
	Vendor      string     `json:"vendor"`
	Amount      core.Money `json:"amount"`
	ReceiveDate string     `json:"receiveDate"`
	DueDate     string     `json:"dueDate"`
}

// QueueService tracks vendor invoices until they are paid.
type QueueService struct {
	store  ports.QueueStore
	events EventPublisher
	now    func() time.Time
}

func NewQueueService(store ports.QueueStore, events EventPublisher) *QueueService {
	return &QueueService{
		store:  store,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Add stores a new item as Pending.
func (s *QueueService) Add(ctx context.Context, in QueueInput) (core.QueueItem, error) {
	item := core.QueueItem{
		Vendor:      strings.TrimSpace(in.Vendor),
		Amount:      in.Amount,
		ReceiveDate: strings.TrimSpace(in.ReceiveDate),
		DueDate:     strings.TrimSpace(in.DueDate),
		Status:      core.QueuePending,
		CreatedAt:   s.now(),
	}
	if err := item.Validate(); err != nil {
		return core.QueueItem{}, err
	}
	saved, err := s.store.AddQueueItem(ctx, item)
	if err != nil {
		return core.QueueItem{}, fmt.Errorf("save queue item: %w", err)
	}
	slog.InfoContext(ctx, "Queue item added",
		"id", saved.ID,
		"vendor", saved.Vendor,
		"due_date", saved.DueDate,
		"amount_cents", saved.Amount.Cents)

	s.changed(ctx, saved)
	return saved, nil
}

// SetStatus moves an item to Pending or Paid.
func (s *QueueService) SetStatus(ctx context.Context, id string, status core.QueueStatus) (core.QueueItem, error) {
	return s.update(ctx, id, func(item core.QueueItem) (core.QueueItem, error) {
		return ledger.SetStatus(item, status)
	})
}

// Toggle flips the item between Pending and Paid.
func (s *QueueService) Toggle(ctx context.Context, id string) (core.QueueItem, error) {
	return s.update(ctx, id, func(item core.QueueItem) (core.QueueItem, error) {
		return ledger.SetStatus(item, item.Status.Toggle())
	})
}

// Rename corrects the vendor of one item.
func (s *QueueService) Rename(ctx context.Context, id, vendor string) (core.QueueItem, error) {
	return s.update(ctx, id, func(item core.QueueItem) (core.QueueItem, error) {
		return ledger.Rename(item, vendor)
	})
}

func (s *QueueService) update(ctx context.Context, id string, change func(core.QueueItem) (core.QueueItem, error)) (core.QueueItem, error) {
	item, err := s.store.GetQueueItem(ctx, id)
	if err != nil {
		return core.QueueItem{}, fmt.Errorf("get queue item %s: %w", id, err)
	}
	updated, err := change(item)
	if err != nil {
		return core.QueueItem{}, err
	}
	if err := s.store.UpdateQueueItem(ctx, updated); err != nil {
		return core.QueueItem{}, fmt.Errorf("update queue item %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Queue item updated",
		"id", id,
		"vendor", updated.Vendor,
		"status", updated.Status)

	s.changed(ctx, updated)
	return updated, nil
}

// Delete removes an item unconditionally.
func (s *QueueService) Delete(ctx context.Context, id string) (core.QueueItem, error) {
	removed, err := s.store.DeleteQueueItem(ctx, id)
	if err != nil {
		return core.QueueItem{}, fmt.Errorf("delete queue item %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Queue item deleted", "id", id)

	s.changed(ctx, removed)
	return removed, nil
}

// MonthView lists the items due in the month by due date with totals by
// status and per vendor.
func (s *QueueService) MonthView(ctx context.Context, key core.MonthKey) (ledger.QueueReport, error) {
	if err := key.Validate(); err != nil {
		return ledger.QueueReport{}, core.Invalid("month", err)
	}
	items, err := s.store.ListQueueByMonth(ctx, key)
	if err != nil {
		return ledger.QueueReport{}, fmt.Errorf("list queue %s: %w", key, err)
	}
	return ledger.BuildQueueReport(key, items), nil
}

func (s *QueueService) changed(ctx context.Context, item core.QueueItem) {
	if key, ok := monthOfDate(item.DueDate); ok {
		publish(ctx, s.events, amqp.KindQueue, key)
	}
}
