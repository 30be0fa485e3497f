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

// PaymentStore is what the payments sub-ledger needs from a backend.
type PaymentStore interface {
	ports.PaymentStore
	ports.CarryForwardStore
}

// PaymentService manages the payments sub-ledger and the monthly
// carry-forward balance.
type PaymentService struct {
	store  PaymentStore
	events EventPublisher
	now    func() time.Time
}

func NewPaymentService(store PaymentStore, events EventPublisher) *PaymentService {
	return &PaymentService{
		store:  store,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// AddNew records an outstanding item.
func (s *PaymentService) AddNew(ctx context.Context, date string, amount core.Money) (core.Payment, error) {
	return s.add(ctx, core.Payment{
		Date:   date,
		Amount: amount,
		Status: core.PaymentNew,
	})
}

// AddPaid records a settled item. The name is required.
func (s *PaymentService) AddPaid(ctx context.Context, date, name string, amount core.Money) (core.Payment, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Payment{}, core.Invalid("name", core.ErrEmptyTitle)
	}
	now := s.now()
	return s.add(ctx, core.Payment{
		Date:   date,
		Name:   name,
		Amount: amount,
		Status: core.PaymentPaid,
		PaidAt: &now,
	})
}

func (s *PaymentService) add(ctx context.Context, p core.Payment) (core.Payment, error) {
	p.Date = strings.TrimSpace(p.Date)
	if err := p.Validate(); err != nil {
		return core.Payment{}, err
	}
	p.CreatedAt = s.now()

	saved, err := s.store.AddPayment(ctx, p)
	if err != nil {
		return core.Payment{}, fmt.Errorf("save payment: %w", err)
	}
	slog.InfoContext(ctx, "Payment added",
		"id", saved.ID,
		"status", saved.Status,
		"date", saved.Date,
		"amount_cents", saved.Amount.Cents)

	if key, ok := monthOfDate(saved.Date); ok {
		publish(ctx, s.events, amqp.KindPayments, key)
	}
	return saved, nil
}

func (s *PaymentService) Delete(ctx context.Context, id string) (core.Payment, error) {
	removed, err := s.store.DeletePayment(ctx, id)
	if err != nil {
		return core.Payment{}, fmt.Errorf("delete payment %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Payment deleted", "id", id)

	if key, ok := monthOfDate(removed.Date); ok {
		publish(ctx, s.events, amqp.KindPayments, key)
	}
	return removed, nil
}

// CarryForward returns the month's opening balance, zero when unset.
func (s *PaymentService) CarryForward(ctx context.Context, key core.MonthKey) (core.Money, error) {
	if err := key.Validate(); err != nil {
		return core.Money{}, core.Invalid("month", err)
	}
	cf, _, err := s.store.GetCarryForward(ctx, key)
	if err != nil {
		return core.Money{}, fmt.Errorf("get carry forward %s: %w", key, err)
	}
	return cf.Amount, nil
}

// SetCarryForward replaces the month's opening balance and returns the
// refreshed month view. Negative amounts are allowed.
func (s *PaymentService) SetCarryForward(ctx context.Context, key core.MonthKey, amount core.Money) (ledger.PaymentReport, error) {
	if err := key.Validate(); err != nil {
		return ledger.PaymentReport{}, core.Invalid("month", err)
	}
	cf := core.CarryForward{Year: key.Year, Month: key.Month, Amount: amount, UpdatedAt: s.now()}
	if err := s.store.UpsertCarryForward(ctx, cf); err != nil {
		return ledger.PaymentReport{}, fmt.Errorf("set carry forward %s: %w", key, err)
	}
	slog.InfoContext(ctx, "Carry forward set", "month", key.String(), "amount_cents", amount.Cents)

	publish(ctx, s.events, amqp.KindPayments, key)
	return s.MonthView(ctx, key)
}

// MonthView splits the month's payments by status and nets them against
// the carry-forward.
func (s *PaymentService) MonthView(ctx context.Context, key core.MonthKey) (ledger.PaymentReport, error) {
	if err := key.Validate(); err != nil {
		return ledger.PaymentReport{}, core.Invalid("month", err)
	}
	payments, err := s.store.ListPaymentsByMonth(ctx, key)
	if err != nil {
		return ledger.PaymentReport{}, fmt.Errorf("list payments %s: %w", key, err)
	}
	carry, err := s.CarryForward(ctx, key)
	if err != nil {
		return ledger.PaymentReport{}, err
	}
	return ledger.BuildPaymentReport(key, payments, carry), nil
}
