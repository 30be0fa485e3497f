// Package adapters decorates backends with cross-cutting behaviour the
// services should not care about.
package adapters

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bookkeep/internal/core"
	"bookkeep/internal/ports"
	"bookkeep/internal/retry"
)

// RetryingStore wraps a backend with a bounded retry policy and reports
// every failure that is not a lookup miss as a *core.StoreError.
//
// Inserts get their id and timestamps before the first attempt, so a retry
// after an ambiguous failure cannot create a second record.
type RetryingStore struct {
	next   ports.Store
	policy retry.Policy
	logger *slog.Logger
}

func NewRetryingStore(next ports.Store, policy retry.Policy, logger *slog.Logger) *RetryingStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryingStore{next: next, policy: policy, logger: logger}
}

// IsRetryable reports whether err looks transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrDuplicate) || core.IsValidation(err) {
		return false
	}
	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		switch st.Code() {
		case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted, codes.Internal:
			return true
		}
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, transient := range []string{
		"database is locked",
		"sqlite_busy",
		"connection refused",
		"connection reset",
		"broken pipe",
		"eof",
		"timeout",
	} {
		if strings.Contains(msg, transient) {
			return true
		}
	}
	return false
}

func isAlreadyExists(err error) bool {
	if errors.Is(err, core.ErrDuplicate) || status.Code(err) == codes.AlreadyExists {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") || strings.Contains(msg, "already exists")
}

func (s *RetryingStore) run(ctx context.Context, op string, fn func(context.Context) error) error {
	attempt := 0
	err := s.policy.Do(ctx, IsRetryable, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err != nil && IsRetryable(err) {
			s.logger.WarnContext(ctx, "Store call failed, will retry",
				"operation", op,
				"attempt", attempt,
				"error", err)
		}
		return err
	})
	return s.wrap(op, err)
}

// runInsert treats a duplicate key on a retry as the earlier attempt having
// landed.
func (s *RetryingStore) runInsert(ctx context.Context, op string, fn func(context.Context) error) (bool, error) {
	attempt := 0
	replayed := false
	err := s.policy.Do(ctx, IsRetryable, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err != nil && attempt > 1 && isAlreadyExists(err) {
			replayed = true
			return nil
		}
		if err != nil && IsRetryable(err) {
			s.logger.WarnContext(ctx, "Store insert failed, will retry",
				"operation", op,
				"attempt", attempt,
				"error", err)
		}
		return err
	})
	return replayed, s.wrap(op, err)
}

func (s *RetryingStore) wrap(op string, err error) error {
	if err == nil || errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrDuplicate) || core.IsValidation(err) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &core.StoreError{Op: op, Err: err, Retryable: IsRetryable(err) || errors.Is(err, context.DeadlineExceeded)}
}

func (s *RetryingStore) Ping(ctx context.Context) error {
	return s.run(ctx, "ping", s.next.Ping)
}

func (s *RetryingStore) Close() error {
	return s.next.Close()
}

func (s *RetryingStore) AddEntry(ctx context.Context, e core.LedgerEntry) (core.LedgerEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	var saved core.LedgerEntry
	replayed, err := s.runInsert(ctx, "add entry", func(ctx context.Context) error {
		var err error
		saved, err = s.next.AddEntry(ctx, e)
		return err
	})
	if replayed {
		return e.Normalize(), nil
	}
	return saved, err
}

func (s *RetryingStore) DeleteEntry(ctx context.Context, id string) (core.LedgerEntry, error) {
	var removed core.LedgerEntry
	err := s.run(ctx, "delete entry", func(ctx context.Context) error {
		var err error
		removed, err = s.next.DeleteEntry(ctx, id)
		return err
	})
	return removed, err
}

func (s *RetryingStore) ListEntries(ctx context.Context) ([]core.LedgerEntry, error) {
	var out []core.LedgerEntry
	err := s.run(ctx, "list entries", func(ctx context.Context) error {
		var err error
		out, err = s.next.ListEntries(ctx)
		return err
	})
	return out, err
}

func (s *RetryingStore) ListEntriesByMonth(ctx context.Context, key core.MonthKey) ([]core.LedgerEntry, error) {
	var out []core.LedgerEntry
	err := s.run(ctx, "list entries by month", func(ctx context.Context) error {
		var err error
		out, err = s.next.ListEntriesByMonth(ctx, key)
		return err
	})
	return out, err
}

func (s *RetryingStore) AddPayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	var saved core.Payment
	replayed, err := s.runInsert(ctx, "add payment", func(ctx context.Context) error {
		var err error
		saved, err = s.next.AddPayment(ctx, p)
		return err
	})
	if replayed {
		return p, nil
	}
	return saved, err
}

func (s *RetryingStore) DeletePayment(ctx context.Context, id string) (core.Payment, error) {
	var removed core.Payment
	err := s.run(ctx, "delete payment", func(ctx context.Context) error {
		var err error
		removed, err = s.next.DeletePayment(ctx, id)
		return err
	})
	return removed, err
}

func (s *RetryingStore) ListPaymentsByMonth(ctx context.Context, key core.MonthKey) ([]core.Payment, error) {
	var out []core.Payment
	err := s.run(ctx, "list payments", func(ctx context.Context) error {
		var err error
		out, err = s.next.ListPaymentsByMonth(ctx, key)
		return err
	})
	return out, err
}

func (s *RetryingStore) GetCarryForward(ctx context.Context, key core.MonthKey) (core.CarryForward, bool, error) {
	var (
		cf    core.CarryForward
		found bool
	)
	err := s.run(ctx, "get carry forward", func(ctx context.Context) error {
		var err error
		cf, found, err = s.next.GetCarryForward(ctx, key)
		return err
	})
	return cf, found, err
}

// UpsertCarryForward is safe to repeat: the write is keyed by month.
func (s *RetryingStore) UpsertCarryForward(ctx context.Context, cf core.CarryForward) error {
	if cf.UpdatedAt.IsZero() {
		cf.UpdatedAt = time.Now().UTC()
	}
	return s.run(ctx, "upsert carry forward", func(ctx context.Context) error {
		return s.next.UpsertCarryForward(ctx, cf)
	})
}

func (s *RetryingStore) AddQueueItem(ctx context.Context, q core.QueueItem) (core.QueueItem, error) {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	var saved core.QueueItem
	replayed, err := s.runInsert(ctx, "add queue item", func(ctx context.Context) error {
		var err error
		saved, err = s.next.AddQueueItem(ctx, q)
		return err
	})
	if replayed {
		return s.GetQueueItem(ctx, q.ID)
	}
	return saved, err
}

func (s *RetryingStore) GetQueueItem(ctx context.Context, id string) (core.QueueItem, error) {
	var out core.QueueItem
	err := s.run(ctx, "get queue item", func(ctx context.Context) error {
		var err error
		out, err = s.next.GetQueueItem(ctx, id)
		return err
	})
	return out, err
}

func (s *RetryingStore) UpdateQueueItem(ctx context.Context, q core.QueueItem) error {
	return s.run(ctx, "update queue item", func(ctx context.Context) error {
		return s.next.UpdateQueueItem(ctx, q)
	})
}

func (s *RetryingStore) DeleteQueueItem(ctx context.Context, id string) (core.QueueItem, error) {
	var removed core.QueueItem
	err := s.run(ctx, "delete queue item", func(ctx context.Context) error {
		var err error
		removed, err = s.next.DeleteQueueItem(ctx, id)
		return err
	})
	return removed, err
}

func (s *RetryingStore) ListQueueByMonth(ctx context.Context, key core.MonthKey) ([]core.QueueItem, error) {
	var out []core.QueueItem
	err := s.run(ctx, "list queue", func(ctx context.Context) error {
		var err error
		out, err = s.next.ListQueueByMonth(ctx, key)
		return err
	})
	return out, err
}
