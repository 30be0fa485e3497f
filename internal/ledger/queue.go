package ledger

import (
	"sort"
	"strings"

	"bookkeep/internal/core"
)

// StatusTotals splits queue amounts by status.
type StatusTotals struct {
	Pending      core.Money `json:"pending"`
	Paid         core.Money `json:"paid"`
	Total        core.Money `json:"total"`
	PendingCount int        `json:"pendingCount"`
	PaidCount    int        `json:"paidCount"`
}

// VendorTotal is the queue amount owed to one vendor regardless of status.
type VendorTotal struct {
	Vendor string     `json:"vendor"`
	Amount core.Money `json:"amount"`
	Count  int        `json:"count"`
}

// FilterQueueByMonth keeps items whose due date starts with YYYY-MM.
func FilterQueueByMonth(items []core.QueueItem, key core.MonthKey) []core.QueueItem {
	prefix := key.Prefix()
	out := make([]core.QueueItem, 0, len(items))
	for _, it := range items {
		if strings.HasPrefix(it.DueDate, prefix) {
			out = append(out, it)
		}
	}
	return out
}

// SortByDueDate orders by due date, then by insertion sequence.
func SortByDueDate(items []core.QueueItem) []core.QueueItem {
	out := append([]core.QueueItem(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DueDate != out[j].DueDate {
			return out[i].DueDate < out[j].DueDate
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

func TotalsByStatus(items []core.QueueItem) StatusTotals {
	var t StatusTotals
	for _, it := range items {
		switch it.Status {
		case core.QueuePaid:
			t.Paid = t.Paid.Add(it.Amount)
			t.PaidCount++
		default:
			t.Pending = t.Pending.Add(it.Amount)
			t.PendingCount++
		}
		t.Total = t.Total.Add(it.Amount)
	}
	return t
}

// VendorSummary groups by trimmed vendor name, case-sensitive, across both
// statuses. Groups keep first-seen order.
func VendorSummary(items []core.QueueItem) []VendorTotal {
	index := make(map[string]int)
	out := make([]VendorTotal, 0)
	for _, it := range items {
		name := strings.TrimSpace(it.Vendor)
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, VendorTotal{Vendor: name})
		}
		out[i].Amount = out[i].Amount.Add(it.Amount)
		out[i].Count++
	}
	return out
}

// SetStatus moves an item between Pending and Paid.
func SetStatus(item core.QueueItem, status core.QueueStatus) (core.QueueItem, error) {
	if !status.Valid() {
		return item, core.Invalid("status", core.ErrInvalidStatus)
	}
	item.Status = status
	return item, nil
}

// Rename corrects the vendor name. Summaries are recomputed by callers.
func Rename(item core.QueueItem, vendor string) (core.QueueItem, error) {
	vendor = strings.TrimSpace(vendor)
	if vendor == "" {
		return item, core.Invalid("vendor", core.ErrEmptyVendor)
	}
	item.Vendor = vendor
	return item, nil
}

// QueueReport is the month view of the payment queue.
type QueueReport struct {
	Month   core.MonthKey    `json:"month"`
	Items   []core.QueueItem `json:"items"`
	Totals  StatusTotals     `json:"totals"`
	Vendors []VendorTotal    `json:"vendors"`
}

func BuildQueueReport(key core.MonthKey, items []core.QueueItem) QueueReport {
	month := SortByDueDate(FilterQueueByMonth(items, key))
	if month == nil {
		month = []core.QueueItem{}
	}
	return QueueReport{
		Month:   key,
		Items:   month,
		Totals:  TotalsByStatus(month),
		Vendors: VendorSummary(month),
	}
}
