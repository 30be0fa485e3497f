package google

import (
	"fmt"

	"bookkeep/internal/core"
	"bookkeep/internal/ledger"
)

// Tab suffixes; the full tab title is "<YYYY-MM> <suffix>".
const (
	tabDaily    = "Daily"
	tabPayments = "Payments"
	tabQueue    = "Queue"
)

var dailyHeader = []any{"วันที่", "รับสด", "รับโอน", "จ่ายสด", "จ่ายโอน", "ยอดขาย", "คงเหลือ"}

func tabTitle(key core.MonthKey, suffix string) string {
	return fmt.Sprintf("%s %s", key.Prefix(), suffix)
}

// amount writes plain numbers so the sheet can sum them.
func amount(m core.Money) any {
	return m.Float()
}

func reportRowValues(r ledger.ReportRow) []any {
	return []any{
		r.Label,
		amount(r.Sums.IncomeCash),
		amount(r.Sums.IncomeTransfer),
		amount(r.Sums.ExpenseCash),
		amount(r.Sums.ExpenseTransfer),
		amount(r.TotalSales),
		amount(r.Balance),
	}
}

// monthReportValues lays the report out as header, one row per day, the
// coin row when present, the month total and the missing coin note.
func monthReportValues(rep ledger.MonthReport) [][]any {
	out := [][]any{dailyHeader}
	for _, d := range rep.Days {
		out = append(out, reportRowValues(d))
	}
	if rep.Coin != nil {
		out = append(out, reportRowValues(*rep.Coin))
	}
	out = append(out, reportRowValues(rep.Total))
	if note := ledger.MissingCoinNote(rep.MissingCoinDays); note != "" {
		out = append(out, []any{}, []any{note})
	}
	return out
}

func paymentReportValues(rep ledger.PaymentReport) [][]any {
	out := [][]any{{"สถานะ", "วันที่", "รายการ", "จำนวนเงิน"}}
	for _, p := range rep.New {
		out = append(out, []any{string(p.Status), p.Date, p.Name, amount(p.Amount)})
	}
	for _, p := range rep.Paid {
		out = append(out, []any{string(p.Status), p.Date, p.Name, amount(p.Amount)})
	}
	out = append(out,
		[]any{},
		[]any{"ยอดยกมา", "", "", amount(rep.CarryForward)},
		[]any{"รวมค้างจ่าย", "", "", amount(rep.Totals.New)},
		[]any{"รวมจ่ายแล้ว", "", "", amount(rep.Totals.Paid)},
		[]any{"คงค้างสุทธิ", "", "", amount(rep.NetOutstanding)},
	)
	return out
}

func queueReportValues(rep ledger.QueueReport) [][]any {
	out := [][]any{{"ครบกำหนด", "วันที่รับ", "ผู้ขาย", "จำนวนเงิน", "สถานะ"}}
	for _, it := range rep.Items {
		out = append(out, []any{it.DueDate, it.ReceiveDate, it.Vendor, amount(it.Amount), string(it.Status)})
	}
	out = append(out,
		[]any{},
		[]any{"Pending", "", "", amount(rep.Totals.Pending)},
		[]any{"Paid", "", "", amount(rep.Totals.Paid)},
		[]any{"Total", "", "", amount(rep.Totals.Total)},
		[]any{},
	)
	for _, v := range rep.Vendors {
		out = append(out, []any{"", "", v.Vendor, amount(v.Amount), v.Count})
	}
	return out
}
