package core

// Tone is the sign classification a report colours a balance with.
type Tone string

const (
	ToneGreen   Tone = "green"
	ToneRed     Tone = "red"
	ToneNeutral Tone = "neutral"
)

func ToneOf(m Money) Tone {
	switch m.Sign() {
	case 1:
		return ToneGreen
	case -1:
		return ToneRed
	}
	return ToneNeutral
}

// Rollup sums every amount field of a group of entries. Date is set on
// daily rollups only.
type Rollup struct {
	Date            string `json:"date,omitempty"`
	Count           int    `json:"count"`
	IncomeCash      Money  `json:"incomeCash"`
	IncomeTransfer  Money  `json:"incomeTransfer"`
	ExpenseCash     Money  `json:"expenseCash"`
	ExpenseTransfer Money  `json:"expenseTransfer"`
	TotalSales      Money  `json:"totalSales"`
	Profit          Money  `json:"profit"`
}

// Add accumulates one entry.
func (r *Rollup) Add(e LedgerEntry) {
	r.Count++
	r.IncomeCash = r.IncomeCash.Add(e.IncomeCash)
	r.IncomeTransfer = r.IncomeTransfer.Add(e.IncomeTransfer)
	r.ExpenseCash = r.ExpenseCash.Add(e.ExpenseCash)
	r.ExpenseTransfer = r.ExpenseTransfer.Add(e.ExpenseTransfer)
	r.TotalSales = r.TotalSales.Add(e.TotalSales)
	r.Profit = r.Profit.Add(e.Profit)
}

// Plus returns the field-wise sum of two rollups. Date is kept from r.
func (r Rollup) Plus(o Rollup) Rollup {
	r.Count += o.Count
	r.IncomeCash = r.IncomeCash.Add(o.IncomeCash)
	r.IncomeTransfer = r.IncomeTransfer.Add(o.IncomeTransfer)
	r.ExpenseCash = r.ExpenseCash.Add(o.ExpenseCash)
	r.ExpenseTransfer = r.ExpenseTransfer.Add(o.ExpenseTransfer)
	r.TotalSales = r.TotalSales.Add(o.TotalSales)
	r.Profit = r.Profit.Add(o.Profit)
	return r
}

func (r Rollup) Balance() Money {
	return r.Profit.Sub(r.ExpenseCash)
}

func (r Rollup) Tone() Tone {
	return ToneOf(r.Balance())
}
