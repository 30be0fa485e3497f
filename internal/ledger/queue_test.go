package ledger

import (
	"errors"
	"testing"

	"bookkeep/internal/core"
)

func item(seq int64, vendor string, cents int64, due string, status core.QueueStatus) core.QueueItem {
	return core.QueueItem{
		ID:      vendor + due,
		Vendor:  vendor,
		Amount:  core.NewMoney(cents),
		DueDate: due,
		Status:  status,
		Seq:     seq,
	}
}

func TestVendorSummaryTrims(t *testing.T) {
	items := []core.QueueItem{
		item(1, "Acme", 10000, "2025-01-10", core.QueuePending),
		item(2, " Acme ", 5000, "2025-01-11", core.QueuePaid),
		item(3, "acme", 100, "2025-01-12", core.QueuePending),
	}
	got := VendorSummary(items)
	if len(got) != 2 {
		t.Fatalf("expected 2 groups (case-sensitive), got %d", len(got))
	}
	if got[0].Vendor != "Acme" || got[0].Amount.Cents != 15000 || got[0].Count != 2 {
		t.Fatalf("unexpected first group %+v", got[0])
	}
	if got[1].Vendor != "acme" {
		t.Fatalf("expected first-seen order, got %q second", got[1].Vendor)
	}
}

func TestVendorSummaryMatchesTotal(t *testing.T) {
	items := []core.QueueItem{
		item(1, "A", 100, "2025-02-01", core.QueuePending),
		item(2, "B", 250, "2025-02-03", core.QueuePaid),
		item(3, "A ", 75, "2025-02-04", core.QueuePaid),
		item(4, "C", 999, "2025-03-01", core.QueuePending),
	}
	month := FilterQueueByMonth(items, core.NewMonthKey(2025, 2))
	var sum core.Money
	for _, v := range VendorSummary(month) {
		sum = sum.Add(v.Amount)
	}
	if sum != TotalsByStatus(month).Total {
		t.Fatalf("vendor sum %d != total %d", sum.Cents, TotalsByStatus(month).Total.Cents)
	}
	if sum.Cents != 425 {
		t.Fatalf("expected 425, got %d", sum.Cents)
	}
}

func TestSortByDueDateTieBreak(t *testing.T) {
	items := []core.QueueItem{
		item(3, "c", 1, "2025-01-05", core.QueuePending),
		item(1, "a", 1, "2025-01-05", core.QueuePending),
		item(2, "b", 1, "2025-01-01", core.QueuePending),
	}
	got := SortByDueDate(items)
	order := got[0].Vendor + got[1].Vendor + got[2].Vendor
	if order != "bac" {
		t.Fatalf("expected order bac, got %s", order)
	}
	if items[0].Vendor != "c" {
		t.Fatalf("input must not be mutated")
	}
}

func TestToggleTwiceRestoresTotals(t *testing.T) {
	items := []core.QueueItem{
		item(1, "A", 100, "2025-01-01", core.QueuePending),
		item(2, "B", 200, "2025-01-02", core.QueuePaid),
	}
	before := TotalsByStatus(items)
	beforeVendors := VendorSummary(items)

	var err error
	items[0], err = SetStatus(items[0], items[0].Status.Toggle())
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	mid := TotalsByStatus(items)
	if mid.Paid.Cents != 300 || mid.Pending.Cents != 0 {
		t.Fatalf("unexpected totals after one toggle %+v", mid)
	}
	items[0], _ = SetStatus(items[0], items[0].Status.Toggle())

	if TotalsByStatus(items) != before {
		t.Fatalf("totals not restored")
	}
	after := VendorSummary(items)
	for i := range after {
		if after[i] != beforeVendors[i] {
			t.Fatalf("vendor summary changed: %+v vs %+v", after[i], beforeVendors[i])
		}
	}
}

func TestSetStatusRejectsUnknown(t *testing.T) {
	_, err := SetStatus(item(1, "A", 1, "2025-01-01", core.QueuePending), "Cancelled")
	if !errors.Is(err, core.ErrInvalidStatus) {
		t.Fatalf("expected invalid status, got %v", err)
	}
}

func TestRename(t *testing.T) {
	it := item(1, "Acme", 1, "2025-01-01", core.QueuePending)
	got, err := Rename(it, "  Acme Ltd ")
	if err != nil || got.Vendor != "Acme Ltd" {
		t.Fatalf("rename got %q err %v", got.Vendor, err)
	}
	if _, err := Rename(it, "   "); !errors.Is(err, core.ErrEmptyVendor) {
		t.Fatalf("expected empty vendor error, got %v", err)
	}
}

func TestBuildQueueReportEmpty(t *testing.T) {
	rep := BuildQueueReport(core.NewMonthKey(2025, 5), nil)
	if rep.Items == nil || len(rep.Items) != 0 || len(rep.Vendors) != 0 {
		t.Fatalf("expected empty report, got %+v", rep)
	}
}
