package services

import (
	"context"
	"errors"
	"testing"

	"bookkeep/internal/amqp"
	"bookkeep/internal/core"
	"bookkeep/internal/storage/memory"
)

func TestPaymentService_MonthView(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewPaymentService(memory.New(), pub)
	ctx := context.Background()
	key := core.NewMonthKey(2025, 4)

	if _, err := svc.AddNew(ctx, "2025-04-03", core.NewMoney(50000)); err != nil {
		t.Fatalf("AddNew: %v", err)
	}
	if _, err := svc.AddNew(ctx, "2025-04-01", core.NewMoney(0)); err != nil {
		t.Fatalf("AddNew zero: %v", err)
	}
	paid, err := svc.AddPaid(ctx, "2025-04-02", "ค่าเช่า", core.NewMoney(20000))
	if err != nil {
		t.Fatalf("AddPaid: %v", err)
	}
	if paid.Status != core.PaymentPaid || paid.PaidAt == nil {
		t.Fatalf("unexpected paid item %+v", paid)
	}
	if _, err := svc.AddNew(ctx, "2025-05-01", core.NewMoney(99900)); err != nil {
		t.Fatalf("AddNew other month: %v", err)
	}

	view, err := svc.SetCarryForward(ctx, key, core.NewMoney(10000))
	if err != nil {
		t.Fatalf("SetCarryForward: %v", err)
	}
	if len(view.New) != 2 || len(view.Paid) != 1 {
		t.Fatalf("split wrong: new=%d paid=%d", len(view.New), len(view.Paid))
	}
	if view.New[0].Date != "2025-04-01" {
		t.Errorf("new items not sorted by date: %v", view.New)
	}
	// 100 + 500 - 200
	if view.NetOutstanding.Cents != 40000 || view.Tone != core.ToneGreen {
		t.Errorf("net outstanding = %d tone %s", view.NetOutstanding.Cents, view.Tone)
	}

	for _, k := range pub.kinds() {
		if k != amqp.KindPayments {
			t.Errorf("unexpected event kind %s", k)
		}
	}
}

func TestPaymentService_CarryForwardReplaces(t *testing.T) {
	svc := NewPaymentService(memory.New(), nil)
	ctx := context.Background()
	jan := core.NewMonthKey(2025, 1)
	feb := core.NewMonthKey(2025, 2)

	if got, err := svc.CarryForward(ctx, jan); err != nil || !got.IsZero() {
		t.Fatalf("unset carry should be zero, got %v %v", got, err)
	}
	_, _ = svc.SetCarryForward(ctx, jan, core.NewMoney(100))
	_, _ = svc.SetCarryForward(ctx, jan, core.NewMoney(-250))

	got, _ := svc.CarryForward(ctx, jan)
	if got.Cents != -250 {
		t.Fatalf("latest write should win, got %d", got.Cents)
	}
	if other, _ := svc.CarryForward(ctx, feb); !other.IsZero() {
		t.Fatalf("months must not share carry-forward, got %d", other.Cents)
	}
	view, _ := svc.MonthView(ctx, jan)
	if view.NetOutstanding.Cents != -250 || view.Tone != core.ToneRed {
		t.Errorf("negative carry view = %+v", view)
	}
}

func TestPaymentService_Validation(t *testing.T) {
	svc := NewPaymentService(memory.New(), nil)
	ctx := context.Background()

	if _, err := svc.AddNew(ctx, "2025-04-31", core.NewMoney(1)); !errors.Is(err, core.ErrInvalidDate) {
		t.Errorf("expected invalid date, got %v", err)
	}
	if _, err := svc.AddNew(ctx, "2025-04-01", core.NewMoney(-1)); !errors.Is(err, core.ErrNegativeAmount) {
		t.Errorf("expected negative amount, got %v", err)
	}
	if _, err := svc.AddPaid(ctx, "2025-04-01", " ", core.NewMoney(1)); !core.IsValidation(err) {
		t.Errorf("expected validation error for empty name, got %v", err)
	}
	if _, err := svc.SetCarryForward(ctx, core.NewMonthKey(2025, 13), core.NewMoney(1)); !core.IsValidation(err) {
		t.Errorf("expected validation error for bad month, got %v", err)
	}
}

func TestPaymentService_Delete(t *testing.T) {
	svc := NewPaymentService(memory.New(), nil)
	ctx := context.Background()

	p, _ := svc.AddNew(ctx, "2025-04-01", core.NewMoney(100))
	if _, err := svc.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Delete(ctx, p.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	view, _ := svc.MonthView(ctx, core.NewMonthKey(2025, 4))
	if len(view.New) != 0 {
		t.Fatalf("deleted payment still listed")
	}
}
