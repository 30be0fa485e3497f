// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer minor units. Parsing and formatting go
// through shopspring/decimal so no float ever touches a stored value.
package core

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

type Money struct {
	Cents int64
}

// groupedAmount matches amounts written with thousand separators.
var groupedAmount = regexp.MustCompile(`^[-+]?\d{1,3}(,\d{3})+(\.\d*)?$`)

// maxAmount bounds parsed input well inside int64 cents.
var maxAmount = decimal.New(1, 15)

// NewMoney builds Money from minor units.
func NewMoney(cents int64) Money { return Money{Cents: cents} }

// MoneyFromDecimal rounds d half away from zero to two places.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Round(2).Shift(2).IntPart()}
}

// ParseAmount converts user or spreadsheet input such as "1,234.5" to Money.
//
// Thousand separators are accepted only in groups of three, an empty string is an error and values
// beyond two decimals are rounded half-up. The sign is preserved; callers
// validate it.
//
// Examples:
//
//	ParseAmount("1,234.56") -> 123456
//	ParseAmount("12.345")   -> 1235
//	ParseAmount("-5")       -> -500
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		if !groupedAmount.MatchString(s) {
			return Money{}, ErrInvalidAmount
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.Abs().GreaterThanOrEqual(maxAmount) {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d), nil
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) IsZero() bool { return m.Cents == 0 }

// Sign returns -1, 0 or 1.
func (m Money) Sign() int {
	switch {
	case m.Cents > 0:
		return 1
	case m.Cents < 0:
		return -1
	}
	return 0
}

// Validate requires a strictly positive amount.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float is meant for stores that persist plain numbers.
func (m Money) Float() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

// MoneyFromFloat converts a stored float, rounding to two places.
func MoneyFromFloat(f float64) Money {
	return MoneyFromDecimal(decimal.NewFromFloat(f))
}

// Plain renders the amount with two decimals and no grouping ("-1234.50").
func (m Money) Plain() string {
	return m.Decimal().StringFixed(2)
}

// String renders the amount en-US style: "1,234.56", "-0.50".
func (m Money) String() string {
	s := m.Plain()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(intPart) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(intPart[:lead])
	for i := lead; i < len(intPart); i += 3 {
		b.WriteByte(',')
		b.WriteString(intPart[i : i+3])
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// MarshalJSON emits a JSON number with exactly two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Plain()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "null" {
		*m = Money{}
		return nil
	}
	if s == "" {
		*m = Money{}
		return nil
	}
	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
