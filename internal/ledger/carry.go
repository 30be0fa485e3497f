package ledger

import (
	"sync"

	"bookkeep/internal/core"
)

// NetOutstanding is the month's opening carry plus new items minus paid
// items. Both totals must be restricted to the same month as carry.
func NetOutstanding(carry, newTotal, paidTotal core.Money) core.Money {
	return carry.Add(newTotal).Sub(paidTotal)
}

// CarryForwardLedger holds at most one opening balance per month. A zero
// value is ready to use and safe for concurrent callers.
type CarryForwardLedger struct {
	mu      sync.RWMutex
	records map[core.MonthKey]core.CarryForward
}

// Lookup returns the stored record and whether one exists.
func (l *CarryForwardLedger) Lookup(key core.MonthKey) (core.CarryForward, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cf, ok := l.records[key]
	return cf, ok
}

// Set replaces the month's record in one step; latest write wins.
func (l *CarryForwardLedger) Set(cf core.CarryForward) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.records == nil {
		l.records = make(map[core.MonthKey]core.CarryForward)
	}
	l.records[cf.Key()] = cf
}
