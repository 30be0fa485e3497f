package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"bookkeep/internal/core"
)

// EventKind names the slice of a month that changed.
type EventKind string

const (
	KindEntries  EventKind = "entries"
	KindPayments EventKind = "payments"
	KindQueue    EventKind = "queue"
)

func (k EventKind) Valid() bool {
	switch k {
	case KindEntries, KindPayments, KindQueue:
		return true
	}
	return false
}

// LedgerEvent tells the worker that a month needs exporting again.
// It carries no amounts; the worker rebuilds the report from the store.
type LedgerEvent struct {
	Kind      EventKind `json:"kind"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(kind EventKind, key core.MonthKey) *LedgerEvent {
	return &LedgerEvent{
		Kind:      kind,
		Year:      key.Year,
		Month:     key.Month,
		Timestamp: time.Now(),
	}
}

func (m *LedgerEvent) Key() core.MonthKey {
	return core.NewMonthKey(m.Year, m.Month)
}

func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes and validates a message body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Kind.Valid() {
		return nil, fmt.Errorf("unknown event kind %q", msg.Kind)
	}
	if err := msg.Key().Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
