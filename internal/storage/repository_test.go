package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"bookkeep/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestMigrationsApplyOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	repo.Close()

	if err := RunMigrations(path); err != nil {
		t.Fatalf("second run: %v", err)
	}
	st, err := SchemaVersion(path)
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if st.Version != 1 || st.Dirty {
		t.Errorf("SchemaVersion() = %+v, want version 1 clean", st)
	}
}

func TestEntriesRoundTripInCreationOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	inputs := []core.EntryInput{
		{Date: "2025-01-02", Title: "b", IncomeCash: core.NewMoney(300)},
		{Date: "2025-01-01", Title: "a", IncomeCash: core.NewMoney(100), ExpenseTransfer: core.NewMoney(20)},
		{Date: "2025-02-01", Title: "c", IncomeCash: core.NewMoney(900)},
	}
	for i, in := range inputs {
		if _, err := repo.AddEntry(ctx, in.Entry("", base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("add entry %d: %v", i, err)
		}
	}

	all, err := repo.ListEntries(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].Title != "b" || all[2].Title != "c" {
		t.Fatalf("unexpected order %+v", all)
	}
	if all[1].Profit.Cents != 80 || all[1].ID == "" {
		t.Fatalf("derived fields or id not stored: %+v", all[1])
	}

	jan, err := repo.ListEntriesByMonth(ctx, core.NewMonthKey(2025, 1))
	if err != nil {
		t.Fatalf("list month: %v", err)
	}
	if len(jan) != 2 {
		t.Fatalf("expected 2 january entries, got %d", len(jan))
	}

	removed, err := repo.DeleteEntry(ctx, jan[0].ID)
	if err != nil || removed.Title != "b" {
		t.Fatalf("delete returned %+v, %v", removed, err)
	}
	if _, err := repo.DeleteEntry(ctx, jan[0].ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestCarryForwardUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	key := core.NewMonthKey(2025, 2)

	if _, ok, err := repo.GetCarryForward(ctx, key); err != nil || ok {
		t.Fatalf("expected no record, got ok=%v err=%v", ok, err)
	}
	for _, cents := range []int64{5000, 7000, -100} {
		if err := repo.UpsertCarryForward(ctx, core.CarryForward{Year: 2025, Month: 2, Amount: core.NewMoney(cents)}); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	cf, ok, err := repo.GetCarryForward(ctx, key)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if cf.Amount.Cents != -100 {
		t.Fatalf("latest write must win, got %d", cf.Amount.Cents)
	}

	var n int
	if err := repo.db.QueryRow(`SELECT COUNT(*) FROM carry_forwards WHERE year = 2025 AND month = '02'`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected exactly one record, got %d", n)
	}
}

func TestPaymentsByMonth(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	paidAt := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	payments := []core.Payment{
		{Date: "2025-03-10", Amount: core.NewMoney(100), Status: core.PaymentNew},
		{Date: "2025-03-05", Name: "rent", Amount: core.NewMoney(50), Status: core.PaymentPaid, PaidAt: &paidAt},
		{Date: "2025-04-01", Amount: core.NewMoney(1), Status: core.PaymentNew},
	}
	for _, p := range payments {
		if _, err := repo.AddPayment(ctx, p); err != nil {
			t.Fatalf("add payment: %v", err)
		}
	}
	got, err := repo.ListPaymentsByMonth(ctx, core.NewMonthKey(2025, 3))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].Name != "rent" || got[0].PaidAt == nil {
		t.Fatalf("unexpected payments %+v", got)
	}
}

func TestQueueItemsLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.AddQueueItem(ctx, core.QueueItem{Vendor: "Acme", Amount: core.NewMoney(100), DueDate: "2025-01-05", Status: core.QueuePending})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	second, err := repo.AddQueueItem(ctx, core.QueueItem{Vendor: "Beta", Amount: core.NewMoney(200), DueDate: "2025-01-05", Status: core.QueuePending})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if second.Seq <= first.Seq {
		t.Fatalf("sequence must increase: %d then %d", first.Seq, second.Seq)
	}

	first.Status = core.QueuePaid
	first.Vendor = "Acme Ltd"
	if err := repo.UpdateQueueItem(ctx, first); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.GetQueueItem(ctx, first.ID)
	if err != nil || got.Status != core.QueuePaid || got.Vendor != "Acme Ltd" {
		t.Fatalf("get after update %+v, %v", got, err)
	}

	items, err := repo.ListQueueByMonth(ctx, core.NewMonthKey(2025, 1))
	if err != nil || len(items) != 2 || items[0].ID != first.ID {
		t.Fatalf("list %+v, %v", items, err)
	}

	if _, err := repo.DeleteQueueItem(ctx, second.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.UpdateQueueItem(ctx, second); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
