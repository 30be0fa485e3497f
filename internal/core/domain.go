package core

import (
	"strings"
	"time"
)

// CoinTitle is the title of the recurring daily coin-float entry.
const CoinTitle = "เหรียญ"

const (
	PaymentNew  PaymentStatus = "new"
	PaymentPaid PaymentStatus = "paid"

	QueuePending QueueStatus = "Pending"
	QueuePaid    QueueStatus = "Paid"
)

type (
	PaymentStatus string
	QueueStatus   string

	// LedgerEntry is one recorded cash movement for a date. TotalSales and
	// Profit are stored denormalized and always derived from the four amounts.
	LedgerEntry struct {
		ID              string    `json:"id"`
		Date            string    `json:"date"`
		Title           string    `json:"title"`
		IncomeCash      Money     `json:"incomeCash"`
		IncomeTransfer  Money     `json:"incomeTransfer"`
		ExpenseCash     Money     `json:"expenseCash"`
		ExpenseTransfer Money     `json:"expenseTransfer"`
		TotalSales      Money     `json:"totalSales"`
		Profit          Money     `json:"profit"`
		CreatedAt       time.Time `json:"createdAt"`
	}

	// EntryInput is the write shape of a ledger entry.
	EntryInput struct {
		Date            string `json:"date"`
		Title           string `json:"title"`
		IncomeCash      Money  `json:"incomeCash"`
		IncomeTransfer  Money  `json:"incomeTransfer"`
		ExpenseCash     Money  `json:"expenseCash"`
		ExpenseTransfer Money  `json:"expenseTransfer"`
	}

	// Payment is an item of the payments sub-ledger.
	Payment struct {
		ID        string        `json:"id"`
		Date      string        `json:"date"`
		Name      string        `json:"name,omitempty"`
		Amount    Money         `json:"amount"`
		Status    PaymentStatus `json:"status"`
		CreatedAt time.Time     `json:"createdAt"`
		PaidAt    *time.Time    `json:"paidAt,omitempty"`
	}

	// CarryForward is the opening balance brought into a month.
	CarryForward struct {
		Year      int       `json:"year"`
		Month     int       `json:"month"`
		Amount    Money     `json:"amount"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	// QueueItem is a vendor obligation waiting to be paid. Seq is the
	// insertion index assigned by the store.
	QueueItem struct {
		ID          string      `json:"id"`
		Vendor      string      `json:"vendor"`
		Amount      Money       `json:"amount"`
		ReceiveDate string      `json:"receiveDate,omitempty"`
		DueDate     string      `json:"dueDate"`
		Status      QueueStatus `json:"status"`
		Seq         int64       `json:"seq"`
		CreatedAt   time.Time   `json:"createdAt"`
	}
)

// DeriveTotals computes totalSales and profit from the four raw amounts.
// Expense cash counts towards total sales; only expense transfer reduces profit.
func DeriveTotals(incomeCash, incomeTransfer, expenseCash, expenseTransfer Money) (totalSales, profit Money) {
	totalSales = incomeCash.Add(incomeTransfer).Add(expenseCash)
	profit = totalSales.Sub(expenseTransfer)
	return totalSales, profit
}

// Balance is the reporting balance: profit minus expense cash.
func (e LedgerEntry) Balance() Money {
	return e.Profit.Sub(e.ExpenseCash)
}

func (e LedgerEntry) Tone() Tone {
	return ToneOf(e.Balance())
}

// IsCoin reports whether the entry is the designated coin entry.
func (e LedgerEntry) IsCoin() bool {
	return e.Title == CoinTitle
}

// Normalize recomputes the derived fields from the raw amounts.
func (e LedgerEntry) Normalize() LedgerEntry {
	e.TotalSales, e.Profit = DeriveTotals(e.IncomeCash, e.IncomeTransfer, e.ExpenseCash, e.ExpenseTransfer)
	return e
}

func (e LedgerEntry) Validate() error {
	in := EntryInput{
		Date:            e.Date,
		Title:           e.Title,
		IncomeCash:      e.IncomeCash,
		IncomeTransfer:  e.IncomeTransfer,
		ExpenseCash:     e.ExpenseCash,
		ExpenseTransfer: e.ExpenseTransfer,
	}
	return in.Validate()
}

func (in EntryInput) Validate() error {
	if err := ValidateDate(in.Date); err != nil {
		return Invalid("date", err)
	}
	if strings.TrimSpace(in.Title) == "" {
		return Invalid("title", ErrEmptyTitle)
	}
	if len(in.Title) > 200 {
		return Invalid("title", ErrTitleTooLong)
	}
	amounts := []struct {
		field string
		m     Money
	}{
		{"incomeCash", in.IncomeCash},
		{"incomeTransfer", in.IncomeTransfer},
		{"expenseCash", in.ExpenseCash},
		{"expenseTransfer", in.ExpenseTransfer},
	}
	for _, a := range amounts {
		if a.m.Sign() < 0 {
			return Invalid(a.field, ErrNegativeAmount)
		}
	}
	return nil
}

// Entry builds the stored entry with derived fields filled in.
func (in EntryInput) Entry(id string, createdAt time.Time) LedgerEntry {
	e := LedgerEntry{
		ID:              id,
		Date:            in.Date,
		Title:           strings.TrimSpace(in.Title),
		IncomeCash:      in.IncomeCash,
		IncomeTransfer:  in.IncomeTransfer,
		ExpenseCash:     in.ExpenseCash,
		ExpenseTransfer: in.ExpenseTransfer,
		CreatedAt:       createdAt,
	}
	return e.Normalize()
}

func (s PaymentStatus) Valid() bool {
	return s == PaymentNew || s == PaymentPaid
}

func (p Payment) Validate() error {
	if err := ValidateDate(p.Date); err != nil {
		return Invalid("date", err)
	}
	if p.Amount.Sign() < 0 {
		return Invalid("amount", ErrNegativeAmount)
	}
	if !p.Status.Valid() {
		return Invalid("status", ErrInvalidStatus)
	}
	if len(p.Name) > 200 {
		return Invalid("name", ErrTitleTooLong)
	}
	return nil
}

func (c CarryForward) Key() MonthKey {
	return MonthKey{Year: c.Year, Month: c.Month}
}

func (s QueueStatus) Valid() bool {
	return s == QueuePending || s == QueuePaid
}

// Toggle flips Pending and Paid.
func (s QueueStatus) Toggle() QueueStatus {
	if s == QueuePaid {
		return QueuePending
	}
	return QueuePaid
}

func (q QueueItem) Validate() error {
	if strings.TrimSpace(q.Vendor) == "" {
		return Invalid("vendor", ErrEmptyVendor)
	}
	if err := q.Amount.Validate(); err != nil {
		return Invalid("amount", err)
	}
	if strings.TrimSpace(q.DueDate) == "" {
		return Invalid("dueDate", ErrEmptyDueDate)
	}
	if err := ValidateDate(q.DueDate); err != nil {
		return Invalid("dueDate", err)
	}
	if q.ReceiveDate != "" {
		if err := ValidateDate(q.ReceiveDate); err != nil {
			return Invalid("receiveDate", err)
		}
	}
	if !q.Status.Valid() {
		return Invalid("status", ErrInvalidStatus)
	}
	return nil
}
