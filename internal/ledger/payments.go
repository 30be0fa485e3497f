package ledger

import (
	"sort"
	"strings"

	"bookkeep/internal/core"
)

// PaymentTotals sums the payments sub-ledger by status.
type PaymentTotals struct {
	New       core.Money `json:"new"`
	Paid      core.Money `json:"paid"`
	NewCount  int        `json:"newCount"`
	PaidCount int        `json:"paidCount"`
}

// FilterPaymentsByMonth keeps payments dated in the month, ordered by date.
func FilterPaymentsByMonth(items []core.Payment, key core.MonthKey) []core.Payment {
	prefix := key.Prefix()
	out := make([]core.Payment, 0, len(items))
	for _, p := range items {
		if strings.HasPrefix(p.Date, prefix) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func SummarizePayments(items []core.Payment) PaymentTotals {
	var t PaymentTotals
	for _, p := range items {
		switch p.Status {
		case core.PaymentPaid:
			t.Paid = t.Paid.Add(p.Amount)
			t.PaidCount++
		case core.PaymentNew:
			t.New = t.New.Add(p.Amount)
			t.NewCount++
		}
	}
	return t
}

// PaymentReport is the month view of the payments sub-ledger.
type PaymentReport struct {
	Month          core.MonthKey  `json:"month"`
	New            []core.Payment `json:"new"`
	Paid           []core.Payment `json:"paid"`
	Totals         PaymentTotals  `json:"totals"`
	CarryForward   core.Money     `json:"carryForward"`
	NetOutstanding core.Money     `json:"netOutstanding"`
	Tone           core.Tone      `json:"tone"`
}

// BuildPaymentReport combines the month's payments with its carry-forward.
func BuildPaymentReport(key core.MonthKey, payments []core.Payment, carry core.Money) PaymentReport {
	month := FilterPaymentsByMonth(payments, key)
	rep := PaymentReport{
		Month:        key,
		New:          []core.Payment{},
		Paid:         []core.Payment{},
		Totals:       SummarizePayments(month),
		CarryForward: carry,
	}
	for _, p := range month {
		switch p.Status {
		case core.PaymentPaid:
			rep.Paid = append(rep.Paid, p)
		case core.PaymentNew:
			rep.New = append(rep.New, p)
		}
	}
	rep.NetOutstanding = NetOutstanding(carry, rep.Totals.New, rep.Totals.Paid)
	rep.Tone = core.ToneOf(rep.NetOutstanding)
	return rep
}
