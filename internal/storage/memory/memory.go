package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"bookkeep/internal/core"
	"bookkeep/internal/ledger"
)

// Store keeps every collection in process memory.
type Store struct {
	mu       sync.Mutex
	entries  []core.LedgerEntry
	payments []core.Payment
	queue    []core.QueueItem
	seq      int64
	carry    ledger.CarryForwardLedger
	now      func() time.Time
}

func New() *Store {
	return &Store{now: func() time.Time { return time.Now().UTC() }}
}

// Seed is the on-disk layout accepted by NewFromFile.
type Seed struct {
	Entries       []core.EntryInput   `json:"entries"`
	Payments      []core.Payment      `json:"payments"`
	CarryForwards []core.CarryForward `json:"carryForwards"`
	Queue         []core.QueueItem    `json:"queue"`
}

// NewFromFile loads seed data from a JSON file. A missing file yields an
// empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	if path == "" {
		return s, nil
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(b, &seed); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}

	ctx := context.Background()
	for i, in := range seed.Entries {
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i, err)
		}
		_, _ = s.AddEntry(ctx, in.Entry("", time.Time{}))
	}
	for i, p := range seed.Payments {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("seed payment %d: %w", i, err)
		}
		_, _ = s.AddPayment(ctx, p)
	}
	for _, cf := range seed.CarryForwards {
		_ = s.UpsertCarryForward(ctx, cf)
	}
	for i, q := range seed.Queue {
		if q.Status == "" {
			q.Status = core.QueuePending
		}
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("seed queue item %d: %w", i, err)
		}
		_, _ = s.AddQueueItem(ctx, q)
	}
	return s, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) AddEntry(_ context.Context, e core.LedgerEntry) (core.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	for _, existing := range s.entries {
		if existing.ID == e.ID {
			return core.LedgerEntry{}, core.ErrDuplicate
		}
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	e = e.Normalize()
	s.entries = append(s.entries, e)
	return e, nil
}

func (s *Store) DeleteEntry(_ context.Context, id string) (core.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return e, nil
		}
	}
	return core.LedgerEntry{}, core.ErrNotFound
}

func (s *Store) ListEntries(context.Context) ([]core.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ledger.SortByCreated(s.entries), nil
}

func (s *Store) ListEntriesByMonth(ctx context.Context, key core.MonthKey) ([]core.LedgerEntry, error) {
	all, _ := s.ListEntries(ctx)
	return ledger.FilterByMonth(all, key), nil
}

func (s *Store) AddPayment(_ context.Context, p core.Payment) (core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	s.payments = append(s.payments, p)
	return p, nil
}

func (s *Store) DeletePayment(_ context.Context, id string) (core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.payments {
		if p.ID == id {
			s.payments = append(s.payments[:i], s.payments[i+1:]...)
			return p, nil
		}
	}
	return core.Payment{}, core.ErrNotFound
}

func (s *Store) ListPaymentsByMonth(_ context.Context, key core.MonthKey) ([]core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ledger.FilterPaymentsByMonth(s.payments, key), nil
}

func (s *Store) GetCarryForward(_ context.Context, key core.MonthKey) (core.CarryForward, bool, error) {
	cf, ok := s.carry.Lookup(key)
	if !ok {
		return core.CarryForward{Year: key.Year, Month: key.Month}, false, nil
	}
	return cf, true, nil
}

func (s *Store) UpsertCarryForward(_ context.Context, cf core.CarryForward) error {
	if cf.UpdatedAt.IsZero() {
		cf.UpdatedAt = s.now()
	}
	s.carry.Set(cf)
	return nil
}

func (s *Store) AddQueueItem(_ context.Context, q core.QueueItem) (core.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = s.now()
	}
	s.seq++
	q.Seq = s.seq
	s.queue = append(s.queue, q)
	return q, nil
}

func (s *Store) GetQueueItem(_ context.Context, id string) (core.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.queue {
		if q.ID == id {
			return q, nil
		}
	}
	return core.QueueItem{}, core.ErrNotFound
}

// UpdateQueueItem keeps the stored sequence and creation time.
func (s *Store) UpdateQueueItem(_ context.Context, q core.QueueItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.queue {
		if cur.ID == q.ID {
			q.Seq = cur.Seq
			q.CreatedAt = cur.CreatedAt
			s.queue[i] = q
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) DeleteQueueItem(_ context.Context, id string) (core.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, q := range s.queue {
		if q.ID == id {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return q, nil
		}
	}
	return core.QueueItem{}, core.ErrNotFound
}

func (s *Store) ListQueueByMonth(_ context.Context, key core.MonthKey) ([]core.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := ledger.FilterQueueByMonth(s.queue, key)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}
