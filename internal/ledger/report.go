package ledger

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"bookkeep/internal/core"
)

// Labels used on report rows.
const (
	LabelCoin  = core.CoinTitle
	LabelTotal = "รวมทั้งเดือน"
	LabelGrand = "รวม"
)

// WarningMissingCoin flags dates with activity but no coin entry.
const WarningMissingCoin = "missing_coin"

// DataQualityWarning is advisory. It never blocks an operation.
type DataQualityWarning struct {
	Kind    string `json:"kind"`
	Days    []int  `json:"days"`
	Message string `json:"message"`
}

// ReportRow is one rendered line of a report with its balance and the
// tone the balance column is coloured with.
type ReportRow struct {
	Label string      `json:"label"`
	Sums  core.Rollup `json:"sums"`
	// TotalSales is what the sales column shows; it differs from
	// Sums.TotalSales only on the coin row.
	TotalSales core.Money `json:"totalSales"`
	Balance    core.Money `json:"balance"`
	Tone       core.Tone  `json:"tone"`
}

func rowOf(label string, r core.Rollup) ReportRow {
	return ReportRow{
		Label:      label,
		Sums:       r,
		TotalSales: r.TotalSales,
		Balance:    r.Balance(),
		Tone:       r.Tone(),
	}
}

// coinRow shows the coin channel's raw amounts with sales and balance held
// at zero so the float never reads as profit.
func coinRow(r core.Rollup) ReportRow {
	return ReportRow{
		Label: LabelCoin,
		Sums:  r,
		Tone:  core.ToneNeutral,
	}
}

// Cells renders the row en-US style in column order: label, income cash,
// income transfer, expense cash, expense transfer, total sales, balance.
func (r ReportRow) Cells() []string {
	return []string{
		r.Label,
		r.Sums.IncomeCash.String(),
		r.Sums.IncomeTransfer.String(),
		r.Sums.ExpenseCash.String(),
		r.Sums.ExpenseTransfer.String(),
		r.TotalSales.String(),
		r.Balance.String(),
	}
}

// MonthReport is the monthly-by-date view.
//
// Days and Total cover non-coin entries only. Coin entries are reported on
// their own row, and Gross sums every entry of the month.
type MonthReport struct {
	Month           core.MonthKey        `json:"month"`
	Days            []ReportRow          `json:"days"`
	Coin            *ReportRow           `json:"coin,omitempty"`
	Total           ReportRow            `json:"total"`
	Gross           core.Rollup          `json:"gross"`
	EntryCount      int                  `json:"entryCount"`
	MissingCoinDays []int                `json:"missingCoinDays"`
	Warnings        []DataQualityWarning `json:"warnings"`
}

// BuildMonthReport filters entries to key and assembles the report.
func BuildMonthReport(key core.MonthKey, entries []core.LedgerEntry) MonthReport {
	month := FilterByMonth(entries, key)

	var regular, coins []core.LedgerEntry
	for _, e := range month {
		if e.IsCoin() {
			coins = append(coins, e)
		} else {
			regular = append(regular, e)
		}
	}

	daily := DailyRollups(regular)
	rows := make([]ReportRow, 0, len(daily))
	for _, d := range daily {
		rows = append(rows, rowOf(d.Date, d))
	}

	rep := MonthReport{
		Month:           key,
		Days:            rows,
		Total:           rowOf(LabelTotal, SumRollups(daily)),
		Gross:           MonthlyRollup(month),
		EntryCount:      len(month),
		MissingCoinDays: MissingCoinDays(month),
		Warnings:        []DataQualityWarning{},
	}
	if len(coins) > 0 {
		c := coinRow(MonthlyRollup(coins))
		rep.Coin = &c
	}
	if len(rep.MissingCoinDays) > 0 {
		rep.Warnings = append(rep.Warnings, DataQualityWarning{
			Kind:    WarningMissingCoin,
			Days:    rep.MissingCoinDays,
			Message: MissingCoinNote(rep.MissingCoinDays),
		})
	}
	return rep
}

// MissingCoinDays returns the days of month that have at least one entry
// but no entry titled exactly as the coin entry, ascending.
func MissingCoinDays(entries []core.LedgerEntry) []int {
	all := make(map[string]struct{})
	withCoin := make(map[string]struct{})
	for _, e := range entries {
		all[e.Date] = struct{}{}
		if e.IsCoin() {
			withCoin[e.Date] = struct{}{}
		}
	}

	days := make([]int, 0)
	for date := range all {
		if _, ok := withCoin[date]; ok {
			continue
		}
		days = append(days, core.DayOfMonth(date))
	}
	sort.Ints(days)
	return days
}

// MissingCoinNote renders the report footnote for days without a coin entry.
func MissingCoinNote(days []int) string {
	if len(days) == 0 {
		return ""
	}
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return fmt.Sprintf("หมายเหตุ: วันที่ %s ไม่มีเหรียญ หรือ ใส่ชื่อผิด", strings.Join(parts, ","))
}

// RangeView is the entry list with an optional inclusive date range.
type RangeView struct {
	From    string             `json:"from,omitempty"`
	To      string             `json:"to,omitempty"`
	Entries []core.LedgerEntry `json:"entries"`
	Days    []ReportRow        `json:"days"`
	Total   ReportRow          `json:"total"`
}

// BuildRangeView orders entries by insertion, applies the range and sums it.
func BuildRangeView(entries []core.LedgerEntry, from, to string) RangeView {
	filtered := FilterByRange(SortByCreated(entries), from, to)
	daily := DailyRollups(filtered)
	rows := make([]ReportRow, 0, len(daily))
	for _, d := range daily {
		rows = append(rows, rowOf(d.Date, d))
	}
	return RangeView{
		From:    from,
		To:      to,
		Entries: filtered,
		Days:    rows,
		Total:   rowOf(LabelGrand, GrandTotal(filtered)),
	}
}
