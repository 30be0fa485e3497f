// Package ledger turns snapshots of recorded entries into rollups, reports
// and reconciliation figures. Every function is pure: it never touches a
// store and never mutates its input.
package ledger

import (
	"sort"

	"bookkeep/internal/core"
)

// FilterByRange keeps entries with from <= date <= to. An empty bound
// disables that side. Dates are zero-padded ISO strings so lexical order
// is chronological.
func FilterByRange(entries []core.LedgerEntry, from, to string) []core.LedgerEntry {
	out := make([]core.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if from != "" && e.Date < from {
			continue
		}
		if to != "" && e.Date > to {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterByMonth keeps entries dated in the given month.
func FilterByMonth(entries []core.LedgerEntry, key core.MonthKey) []core.LedgerEntry {
	out := make([]core.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if key.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out
}

// SortByCreated orders entries by insertion time, keeping the input order
// for equal timestamps.
func SortByCreated(entries []core.LedgerEntry) []core.LedgerEntry {
	out := append([]core.LedgerEntry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// DailyRollups returns one rollup per distinct date, ascending by date.
func DailyRollups(entries []core.LedgerEntry) []core.Rollup {
	byDate := make(map[string]*core.Rollup)
	for _, e := range entries {
		r, ok := byDate[e.Date]
		if !ok {
			r = &core.Rollup{Date: e.Date}
			byDate[e.Date] = r
		}
		r.Add(e)
	}

	out := make([]core.Rollup, 0, len(byDate))
	for _, r := range byDate {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// MonthlyRollup sums every entry given. Callers pass a month-filtered set;
// the result equals the sum of DailyRollups over the same set.
func MonthlyRollup(entries []core.LedgerEntry) core.Rollup {
	return sum(entries)
}

// GrandTotal sums an unfiltered or range-filtered set.
func GrandTotal(entries []core.LedgerEntry) core.Rollup {
	return sum(entries)
}

func sum(entries []core.LedgerEntry) core.Rollup {
	var r core.Rollup
	for _, e := range entries {
		r.Add(e)
	}
	return r
}

// SumRollups folds rollups field by field.
func SumRollups(rollups []core.Rollup) core.Rollup {
	var total core.Rollup
	for _, r := range rollups {
		total = total.Plus(r)
	}
	return total
}
