package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bookkeep/internal/amqp"
	"bookkeep/internal/core"
	"bookkeep/internal/retry"
)

type scriptedSource struct {
	mu     sync.Mutex
	rounds int
	events []*amqp.LedgerEvent
	cancel context.CancelFunc
}

// ConsumeLedgerEvents fails the first round, then delivers events and
// cancels the run.
func (s *scriptedSource) ConsumeLedgerEvents(ctx context.Context, handler func(context.Context, *amqp.LedgerEvent) error) error {
	s.mu.Lock()
	s.rounds++
	round := s.rounds
	s.mu.Unlock()

	if round == 1 {
		return errors.New("connection reset")
	}
	for _, ev := range s.events {
		if err := handler(ctx, ev); err != nil {
			return err
		}
	}
	s.cancel()
	<-ctx.Done()
	return ctx.Err()
}

type countingHandler struct {
	mu   sync.Mutex
	seen []amqp.EventKind
}

func (h *countingHandler) HandleEvent(_ context.Context, ev *amqp.LedgerEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, ev.Kind)
	return nil
}

func TestExportWorker_ResubscribesAndDelivers(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	key := core.NewMonthKey(2025, 1)
	src := &scriptedSource{
		events: []*amqp.LedgerEvent{amqp.NewLedgerEvent(amqp.KindEntries, key), amqp.NewLedgerEvent(amqp.KindQueue, key)},
		cancel: cancel,
	}
	h := &countingHandler{}
	w := NewExportWorker(src, h)
	w.backoff = retry.Policy{BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}

	if err := w.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if src.rounds != 2 {
		t.Errorf("expected a resubscribe, rounds = %d", src.rounds)
	}
	if len(h.seen) != 2 || h.seen[0] != amqp.KindEntries || h.seen[1] != amqp.KindQueue {
		t.Errorf("handled = %v", h.seen)
	}
}
