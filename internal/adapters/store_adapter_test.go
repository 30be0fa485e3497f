package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bookkeep/internal/core"
	"bookkeep/internal/ports"
	"bookkeep/internal/retry"
	"bookkeep/internal/storage/memory"
)

// flakyStore fails the first N calls of selected operations.
type flakyStore struct {
	ports.Store
	addFailures  int
	listFailures int
	addErr       error
	listErr      error
	addCalls     int
	listCalls    int
	landFirstAdd bool
}

func (f *flakyStore) AddEntry(ctx context.Context, e core.LedgerEntry) (core.LedgerEntry, error) {
	f.addCalls++
	if f.addCalls <= f.addFailures {
		if f.landFirstAdd && f.addCalls == 1 {
			_, _ = f.Store.AddEntry(ctx, e)
		}
		return core.LedgerEntry{}, f.addErr
	}
	if f.landFirstAdd {
		return core.LedgerEntry{}, errors.New("UNIQUE constraint failed: ledger_entries.id")
	}
	return f.Store.AddEntry(ctx, e)
}

func (f *flakyStore) ListEntries(ctx context.Context) ([]core.LedgerEntry, error) {
	f.listCalls++
	if f.listCalls <= f.listFailures {
		return nil, f.listErr
	}
	return f.Store.ListEntries(ctx)
}

func fastPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"not found", core.ErrNotFound, false},
		{"validation", core.Invalid("date", core.ErrInvalidDate), false},
		{"canceled", context.Canceled, false},
		{"grpc unavailable", status.Error(codes.Unavailable, "down"), true},
		{"grpc aborted", status.Error(codes.Aborted, "contention"), true},
		{"grpc permission", status.Error(codes.PermissionDenied, "nope"), false},
		{"sqlite busy", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"constraint", errors.New("CHECK constraint failed"), false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.expected {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestRetryingStoreRecoversTransientFailure(t *testing.T) {
	flaky := &flakyStore{Store: memory.New(), listFailures: 2, listErr: errors.New("database is locked")}
	s := NewRetryingStore(flaky, fastPolicy(), nil)

	if _, err := s.ListEntries(context.Background()); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if flaky.listCalls != 3 {
		t.Fatalf("expected 3 calls, got %d", flaky.listCalls)
	}
}

func TestRetryingStoreWrapsExhaustedFailure(t *testing.T) {
	flaky := &flakyStore{Store: memory.New(), listFailures: 10, listErr: status.Error(codes.Unavailable, "down")}
	s := NewRetryingStore(flaky, fastPolicy(), nil)

	_, err := s.ListEntries(context.Background())
	var storeErr *core.StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected *core.StoreError, got %T %v", err, err)
	}
	if !storeErr.Retryable || storeErr.Op != "list entries" {
		t.Fatalf("unexpected store error %+v", storeErr)
	}
	if flaky.listCalls != 3 {
		t.Fatalf("expected attempts to stop at policy limit, got %d", flaky.listCalls)
	}
}

func TestRetryingStorePassesNotFoundThrough(t *testing.T) {
	s := NewRetryingStore(memory.New(), fastPolicy(), nil)
	_, err := s.DeleteEntry(context.Background(), "missing")
	if !errors.Is(err, core.ErrNotFound) || core.IsStoreError(err) {
		t.Fatalf("expected bare ErrNotFound, got %v", err)
	}
}

func TestRetryingStoreInsertReplayIsIdempotent(t *testing.T) {
	mem := memory.New()
	flaky := &flakyStore{
		Store:        mem,
		addFailures:  1,
		addErr:       errors.New("connection reset by peer"),
		landFirstAdd: true,
	}
	s := NewRetryingStore(flaky, fastPolicy(), nil)

	in := core.EntryInput{Date: "2025-01-01", Title: "shop", IncomeCash: core.NewMoney(1000)}
	saved, err := s.AddEntry(context.Background(), in.Entry("", time.Time{}))
	if err != nil {
		t.Fatalf("expected replayed insert to succeed, got %v", err)
	}
	if saved.ID == "" {
		t.Fatalf("expected id assigned before first attempt")
	}
	all, _ := mem.ListEntries(context.Background())
	if len(all) != 1 || all[0].ID != saved.ID {
		t.Fatalf("expected exactly one stored entry, got %+v", all)
	}
}
