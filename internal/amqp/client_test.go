package amqp

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"bookkeep/internal/core"
)

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{amqp091.ErrClosed, true},
		{fmt.Errorf("publish message: %w", amqp091.ErrClosed), true},
		{errors.New("dial tcp 127.0.0.1:5672: connection refused"), true},
		{errors.New("unexpected EOF"), true},
		{errors.New("write: broken pipe"), true},
		{errors.New("use of closed network connection"), true},
		{errors.New("Exception (406) Reason: PRECONDITION_FAILED"), false},
		{errors.New("marshal message: unsupported value"), false},
	}
	for _, tt := range tests {
		name := "nil"
		if tt.err != nil {
			name = tt.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.want {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// The breaker opens after maxFailures, lets one probe through once
// openTimeout has passed, and reopens if that probe fails.
func TestCircuitBreakerLifecycle(t *testing.T) {
	c := &Client{exchangeName: "bookkeep", queueName: "ledger_exports"}

	if c.isCircuitOpen() {
		t.Fatal("breaker must start closed")
	}
	for i := 0; i < maxFailures-1; i++ {
		c.recordFailure()
	}
	if c.isCircuitOpen() {
		t.Fatalf("breaker opened after %d failures, threshold is %d", maxFailures-1, maxFailures)
	}
	c.recordFailure()
	if !c.isCircuitOpen() {
		t.Fatal("breaker should open at the failure threshold")
	}

	c.mu.Lock()
	c.lastFailure = time.Now().Add(-openTimeout - time.Second)
	c.mu.Unlock()
	if c.isCircuitOpen() {
		t.Fatal("breaker should allow a probe after openTimeout")
	}
	if got := atomic.LoadInt32(&c.state); got != StateHalfOpen {
		t.Fatalf("state = %d, want half-open", got)
	}

	c.recordFailure()
	if atomic.LoadInt32(&c.state) != StateOpen {
		t.Fatal("a failed probe should reopen the breaker")
	}

	c.recordSuccess()
	if c.isCircuitOpen() || atomic.LoadInt64(&c.failureCount) != 0 {
		t.Fatal("success should close the breaker and reset the count")
	}
}

func TestPublishLedgerEventShortCircuits(t *testing.T) {
	ev := NewLedgerEvent(KindEntries, core.NewMonthKey(2025, 1))

	open := &Client{state: StateOpen, lastFailure: time.Now()}
	if err := open.PublishLedgerEvent(context.Background(), ev); !errors.Is(err, errCircuitOpen) {
		t.Fatalf("expected errCircuitOpen, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	closed := &Client{}
	if err := closed.PublishLedgerEvent(ctx, ev); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled before dialing, got %v", err)
	}
}

func TestNewLedgerEvent(t *testing.T) {
	msg := NewLedgerEvent(KindPayments, core.NewMonthKey(2025, 3))

	if msg.Kind != KindPayments || msg.Year != 2025 || msg.Month != 3 {
		t.Errorf("NewLedgerEvent() = %+v", msg)
	}
	if msg.Timestamp.IsZero() || time.Since(msg.Timestamp) > time.Second {
		t.Error("NewLedgerEvent() Timestamp should be recent")
	}
	if msg.Key().String() != "2025-03" {
		t.Errorf("Key() = %s, want 2025-03", msg.Key())
	}
}

func TestLedgerEvent_JSON(t *testing.T) {
	timestamp := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := &LedgerEvent{Kind: KindQueue, Year: 2024, Month: 1, Timestamp: timestamp}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	parsed, err := LedgerEventFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("LedgerEventFromJSON() error = %v", err)
	}
	if parsed.Kind != msg.Kind || parsed.Key() != msg.Key() || !parsed.Timestamp.Equal(timestamp) {
		t.Errorf("parsed = %+v, want %+v", parsed, msg)
	}
}

func TestLedgerEvent_Invalid(t *testing.T) {
	tests := map[string]string{
		"malformed":    `{"kind": 1}`,
		"unknown kind": `{"kind": "expenses", "year": 2024, "month": 1}`,
		"bad month":    `{"kind": "entries", "year": 2024, "month": 13}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LedgerEventFromJSON([]byte(body)); err == nil {
				t.Error("LedgerEventFromJSON() should fail")
			}
		})
	}
}
