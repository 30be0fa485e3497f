package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the zero-padded ISO layout used for every stored date.
// Zero padding makes lexical order equal chronological order.
const DateLayout = "2006-01-02"

// ValidateDate checks s is a real calendar date in DateLayout.
func ValidateDate(s string) error {
	if _, err := ParseDate(s); err != nil {
		return err
	}
	return nil
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// DayOfMonth returns the day part of an ISO date, or 0 when malformed.
func DayOfMonth(date string) int {
	if len(date) < len(DateLayout) {
		return 0
	}
	d, err := strconv.Atoi(date[8:10])
	if err != nil {
		return 0
	}
	return d
}

// MonthKey identifies a calendar month.
type MonthKey struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func NewMonthKey(year, month int) MonthKey {
	return MonthKey{Year: year, Month: month}
}

// MonthOf returns the key of t in UTC.
func MonthOf(t time.Time) MonthKey {
	t = t.UTC()
	return MonthKey{Year: t.Year(), Month: int(t.Month())}
}

// ParseMonthKey parses "YYYY-MM".
func ParseMonthKey(s string) (MonthKey, error) {
	ys, ms, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok || len(ys) != 4 || len(ms) != 2 {
		return MonthKey{}, ErrInvalidMonth
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return MonthKey{}, ErrInvalidMonth
	}
	m, err := strconv.Atoi(ms)
	if err != nil {
		return MonthKey{}, ErrInvalidMonth
	}
	k := MonthKey{Year: y, Month: m}
	if err := k.Validate(); err != nil {
		return MonthKey{}, err
	}
	return k, nil
}

func (k MonthKey) Validate() error {
	if k.Year < 1900 || k.Year > 9999 {
		return ErrInvalidMonth
	}
	if k.Month < 1 || k.Month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// MonthString is the two-digit month, "01".."12".
func (k MonthKey) MonthString() string {
	return fmt.Sprintf("%02d", k.Month)
}

// Prefix is the "YYYY-MM" prefix shared by every date in the month.
func (k MonthKey) Prefix() string {
	return fmt.Sprintf("%04d-%02d", k.Year, k.Month)
}

func (k MonthKey) String() string { return k.Prefix() }

// Contains reports whether the ISO date falls in the month.
func (k MonthKey) Contains(date string) bool {
	return strings.HasPrefix(date, k.Prefix()+"-")
}

// Date returns the ISO date of day in the month.
func (k MonthKey) Date(day int) string {
	return fmt.Sprintf("%s-%02d", k.Prefix(), day)
}

// Days is the number of days in the month.
func (k MonthKey) Days() int {
	return time.Date(k.Year, time.Month(k.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (k MonthKey) Next() MonthKey {
	if k.Month == 12 {
		return MonthKey{Year: k.Year + 1, Month: 1}
	}
	return MonthKey{Year: k.Year, Month: k.Month + 1}
}

func (k MonthKey) Prev() MonthKey {
	if k.Month == 1 {
		return MonthKey{Year: k.Year - 1, Month: 12}
	}
	return MonthKey{Year: k.Year, Month: k.Month - 1}
}
