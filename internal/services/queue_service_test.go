package services

import (
	"context"
	"errors"
	"testing"

	"bookkeep/internal/core"
	"bookkeep/internal/storage/memory"
)

func TestQueueService_Lifecycle(t *testing.T) {
	svc := NewQueueService(memory.New(), nil)
	ctx := context.Background()
	key := core.NewMonthKey(2025, 6)

	a, err := svc.Add(ctx, QueueInput{Vendor: " Acme ", Amount: core.NewMoney(10000), DueDate: "2025-06-10"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if a.Vendor != "Acme" || a.Status != core.QueuePending {
		t.Fatalf("unexpected item %+v", a)
	}
	b, _ := svc.Add(ctx, QueueInput{Vendor: "Beta", Amount: core.NewMoney(5000), DueDate: "2025-06-01", ReceiveDate: "2025-05-20"})
	c, _ := svc.Add(ctx, QueueInput{Vendor: "Acme", Amount: core.NewMoney(2500), DueDate: "2025-06-10"})

	toggled, err := svc.Toggle(ctx, a.ID)
	if err != nil || toggled.Status != core.QueuePaid {
		t.Fatalf("Toggle = %+v, %v", toggled, err)
	}

	view, err := svc.MonthView(ctx, key)
	if err != nil {
		t.Fatalf("MonthView: %v", err)
	}
	ids := []string{view.Items[0].ID, view.Items[1].ID, view.Items[2].ID}
	if ids[0] != b.ID || ids[1] != a.ID || ids[2] != c.ID {
		t.Fatalf("sort by due date then insertion broken: %v", ids)
	}
	if view.Totals.Paid.Cents != 10000 || view.Totals.Pending.Cents != 7500 || view.Totals.Total.Cents != 17500 {
		t.Fatalf("unexpected totals %+v", view.Totals)
	}
	if len(view.Vendors) != 2 || view.Vendors[0].Vendor != "Beta" || view.Vendors[1].Amount.Cents != 12500 {
		t.Fatalf("unexpected vendor summary %+v", view.Vendors)
	}

	renamed, err := svc.Rename(ctx, c.ID, "Acme Ltd")
	if err != nil || renamed.Vendor != "Acme Ltd" {
		t.Fatalf("Rename = %+v, %v", renamed, err)
	}
	view, _ = svc.MonthView(ctx, key)
	if len(view.Vendors) != 3 {
		t.Fatalf("rename should regroup vendors, got %+v", view.Vendors)
	}

	if _, err := svc.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	view, _ = svc.MonthView(ctx, key)
	if len(view.Items) != 2 {
		t.Fatalf("expected 2 items after delete, got %d", len(view.Items))
	}
}

func TestQueueService_ToggleTwiceIsIdentity(t *testing.T) {
	svc := NewQueueService(memory.New(), nil)
	ctx := context.Background()
	item, _ := svc.Add(ctx, QueueInput{Vendor: "V", Amount: core.NewMoney(1), DueDate: "2025-06-01"})

	_, _ = svc.Toggle(ctx, item.ID)
	back, err := svc.Toggle(ctx, item.ID)
	if err != nil || back.Status != item.Status || back.Seq != item.Seq {
		t.Fatalf("toggle twice = %+v, %v; want %+v", back, err, item)
	}
}

func TestQueueService_Errors(t *testing.T) {
	svc := NewQueueService(memory.New(), nil)
	ctx := context.Background()

	tests := []struct {
		name string
		in   QueueInput
		want error
	}{
		{"empty vendor", QueueInput{Vendor: " ", Amount: core.NewMoney(1), DueDate: "2025-06-01"}, core.ErrEmptyVendor},
		{"zero amount", QueueInput{Vendor: "V", DueDate: "2025-06-01"}, core.ErrInvalidAmount},
		{"no due date", QueueInput{Vendor: "V", Amount: core.NewMoney(1)}, core.ErrEmptyDueDate},
		{"bad receive date", QueueInput{Vendor: "V", Amount: core.NewMoney(1), DueDate: "2025-06-01", ReceiveDate: "x"}, core.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Add(ctx, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	item, _ := svc.Add(ctx, QueueInput{Vendor: "V", Amount: core.NewMoney(1), DueDate: "2025-06-01"})
	if _, err := svc.SetStatus(ctx, item.ID, "Cancelled"); !errors.Is(err, core.ErrInvalidStatus) {
		t.Errorf("expected invalid status, got %v", err)
	}
	if _, err := svc.Rename(ctx, item.ID, ""); !errors.Is(err, core.ErrEmptyVendor) {
		t.Errorf("expected empty vendor, got %v", err)
	}
	if _, err := svc.Toggle(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
