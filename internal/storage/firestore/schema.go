package firestore

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"bookkeep/internal/core"
)

// Collection names shared with documents written by earlier clients.
const (
	entriesCollection  = "dailySummary"
	paymentsCollection = "payments"
	carryCollection    = "carryForwards"
	queueCollection    = "paymentQueue"
)

// Documents written by older clients store amounts as plain numbers,
// sometimes as strings, and may omit fields. Decoding happens here, once,
// so the rest of the program only ever sees typed and defaulted records.

type entryDoc struct {
	Date            string    `firestore:"date"`
	Title           string    `firestore:"title"`
	IncomeCash      float64   `firestore:"incomeCash"`
	IncomeTransfer  float64   `firestore:"incomeTransfer"`
	ExpenseCash     float64   `firestore:"expenseCash"`
	ExpenseTransfer float64   `firestore:"expenseTransfer"`
	TotalSales      float64   `firestore:"totalSales"`
	Profit          float64   `firestore:"profit"`
	CreatedAt       time.Time `firestore:"createdAt"`
}

func newEntryDoc(e core.LedgerEntry) entryDoc {
	return entryDoc{
		Date:            e.Date,
		Title:           e.Title,
		IncomeCash:      e.IncomeCash.Float(),
		IncomeTransfer:  e.IncomeTransfer.Float(),
		ExpenseCash:     e.ExpenseCash.Float(),
		ExpenseTransfer: e.ExpenseTransfer.Float(),
		TotalSales:      e.TotalSales.Float(),
		Profit:          e.Profit.Float(),
		CreatedAt:       e.CreatedAt,
	}
}

// decodeEntry recomputes the derived totals instead of trusting stored ones.
func decodeEntry(id string, data map[string]interface{}) (core.LedgerEntry, error) {
	var (
		e   = core.LedgerEntry{ID: id}
		err error
	)
	if e.Date, err = stringField(data, "date", true); err != nil {
		return e, err
	}
	if err := core.ValidateDate(e.Date); err != nil {
		return e, fmt.Errorf("field date: %w", err)
	}
	if e.Title, err = stringField(data, "title", false); err != nil {
		return e, err
	}
	amounts := []struct {
		name string
		dst  *core.Money
	}{
		{"incomeCash", &e.IncomeCash},
		{"incomeTransfer", &e.IncomeTransfer},
		{"expenseCash", &e.ExpenseCash},
		{"expenseTransfer", &e.ExpenseTransfer},
	}
	for _, a := range amounts {
		if *a.dst, err = moneyField(data, a.name); err != nil {
			return e, err
		}
	}
	e.CreatedAt = timeField(data, "createdAt")
	return e.Normalize(), nil
}

type paymentDoc struct {
	Date      string     `firestore:"date"`
	Name      string     `firestore:"name,omitempty"`
	Amount    float64    `firestore:"amount"`
	Status    string     `firestore:"status"`
	CreatedAt time.Time  `firestore:"createdAt"`
	PaidAt    *time.Time `firestore:"paidAt,omitempty"`
}

func newPaymentDoc(p core.Payment) paymentDoc {
	return paymentDoc{
		Date:      p.Date,
		Name:      p.Name,
		Amount:    p.Amount.Float(),
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
		PaidAt:    p.PaidAt,
	}
}

func decodePayment(id string, data map[string]interface{}) (core.Payment, error) {
	var (
		p   = core.Payment{ID: id}
		err error
	)
	if p.Date, err = stringField(data, "date", true); err != nil {
		return p, err
	}
	if p.Name, err = stringField(data, "name", false); err != nil {
		return p, err
	}
	if p.Amount, err = moneyField(data, "amount"); err != nil {
		return p, err
	}
	status, err := stringField(data, "status", true)
	if err != nil {
		return p, err
	}
	p.Status = core.PaymentStatus(status)
	p.CreatedAt = timeField(data, "createdAt")
	if paid := timeField(data, "paidAt"); !paid.IsZero() {
		p.PaidAt = &paid
		// paid items written by older clients carry paidAt only
		if p.CreatedAt.IsZero() {
			p.CreatedAt = paid
		}
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

type carryDoc struct {
	Year      int       `firestore:"year"`
	Month     string    `firestore:"month"`
	Amount    float64   `firestore:"amount"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func newCarryDoc(cf core.CarryForward) carryDoc {
	return carryDoc{
		Year:      cf.Year,
		Month:     cf.Key().MonthString(),
		Amount:    cf.Amount.Float(),
		UpdatedAt: cf.UpdatedAt,
	}
}

// carryDocID is deterministic so a write replaces the month in one step.
func carryDocID(key core.MonthKey) string {
	return key.Prefix()
}

func decodeCarry(data map[string]interface{}) (core.CarryForward, error) {
	var cf core.CarryForward
	year, err := intField(data, "year")
	if err != nil {
		return cf, err
	}
	month, err := intField(data, "month")
	if err != nil {
		return cf, err
	}
	cf.Year, cf.Month = year, month
	if err := cf.Key().Validate(); err != nil {
		return cf, err
	}
	if cf.Amount, err = moneyField(data, "amount"); err != nil {
		return cf, err
	}
	cf.UpdatedAt = timeField(data, "updatedAt")
	if cf.UpdatedAt.IsZero() {
		cf.UpdatedAt = timeField(data, "createdAt")
	}
	return cf, nil
}

type queueDoc struct {
	Vendor      string    `firestore:"vendor"`
	Amount      float64   `firestore:"amount"`
	ReceiveDate string    `firestore:"receiveDate"`
	DueDate     string    `firestore:"dueDate"`
	Status      string    `firestore:"status"`
	Seq         int64     `firestore:"seq"`
	CreatedAt   time.Time `firestore:"createdAt"`
}

func newQueueDoc(q core.QueueItem) queueDoc {
	return queueDoc{
		Vendor:      q.Vendor,
		Amount:      q.Amount.Float(),
		ReceiveDate: q.ReceiveDate,
		DueDate:     q.DueDate,
		Status:      string(q.Status),
		Seq:         q.Seq,
		CreatedAt:   q.CreatedAt,
	}
}

func decodeQueueItem(id string, data map[string]interface{}) (core.QueueItem, error) {
	var (
		q   = core.QueueItem{ID: id}
		err error
	)
	if q.Vendor, err = stringField(data, "vendor", true); err != nil {
		return q, err
	}
	if q.Amount, err = moneyField(data, "amount"); err != nil {
		return q, err
	}
	if q.ReceiveDate, err = stringField(data, "receiveDate", false); err != nil {
		return q, err
	}
	if q.DueDate, err = stringField(data, "dueDate", true); err != nil {
		return q, err
	}
	status, err := stringField(data, "status", false)
	if err != nil {
		return q, err
	}
	q.Status = core.QueueStatus(status)
	if q.Status == "" {
		q.Status = core.QueuePending
	}
	q.CreatedAt = timeField(data, "createdAt")
	if _, ok := data["seq"]; ok {
		seq, err := intField(data, "seq")
		if err != nil {
			return q, err
		}
		q.Seq = int64(seq)
	} else if !q.CreatedAt.IsZero() {
		q.Seq = q.CreatedAt.UnixNano()
	}
	if err := q.Validate(); err != nil {
		return q, err
	}
	return q, nil
}

func stringField(data map[string]interface{}, name string, required bool) (string, error) {
	v, ok := data[name]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("field %s: missing", name)
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %s: expected string, got %T", name, v)
	}
	s = strings.TrimSpace(s)
	if required && s == "" {
		return "", fmt.Errorf("field %s: empty", name)
	}
	return s, nil
}

// moneyField reads a number or numeric string; a missing field is zero.
func moneyField(data map[string]interface{}, name string) (core.Money, error) {
	v, ok := data[name]
	if !ok || v == nil {
		return core.Money{}, nil
	}
	switch n := v.(type) {
	case int64:
		return core.NewMoney(n * 100), nil
	case float64:
		return core.MoneyFromFloat(n), nil
	case string:
		if strings.TrimSpace(n) == "" {
			return core.Money{}, nil
		}
		m, err := core.ParseAmount(n)
		if err != nil {
			return core.Money{}, fmt.Errorf("field %s: %w", name, err)
		}
		return m, nil
	}
	return core.Money{}, fmt.Errorf("field %s: expected number, got %T", name, v)
}

func intField(data map[string]interface{}, name string) (int, error) {
	v, ok := data[name]
	if !ok || v == nil {
		return 0, fmt.Errorf("field %s: missing", name)
	}
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("field %s: %w", name, err)
		}
		return i, nil
	}
	return 0, fmt.Errorf("field %s: expected integer, got %T", name, v)
}

func timeField(data map[string]interface{}, name string) time.Time {
	if t, ok := data[name].(time.Time); ok {
		return t.UTC()
	}
	return time.Time{}
}
