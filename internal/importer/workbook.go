// Package importer reads the legacy daily-summary workbook: one sheet per
// day of a month, one ledger entry per row.
package importer

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"bookkeep/internal/core"
)

// Column positions within a day sheet. Column 0 is a free-form counter.
const (
	colTitle = iota + 1
	colIncomeCash
	colIncomeTransfer
	colExpenseCash
	colExpenseTransfer
)

// firstDataRow skips the header row.
const firstDataRow = 1

// RowError locates a row that could not become an entry.
type RowError struct {
	Sheet string `json:"sheet"`
	Row   int    `json:"row"`
	Err   error  `json:"-"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("sheet %q row %d: %v", e.Sheet, e.Row, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Workbook is the parsed content of one upload.
type Workbook struct {
	Month         core.MonthKey
	Checksum      string
	Inputs        []core.EntryInput
	SkippedRows   int
	SkippedSheets []string
	Errors        []RowError
}

// Parse reads an xlsx stream and maps each sheet named after a day number to
// dated entry inputs within month. Sheets with other names are skipped, as
// are rows without a title. Rows with malformed amounts are reported in
// Errors and left out of Inputs.
func Parse(r io.Reader, month core.MonthKey) (*Workbook, error) {
	if err := month.Validate(); err != nil {
		return nil, core.Invalid("month", err)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	sum := sha256.Sum256(raw)

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, core.Invalid("file", fmt.Errorf("open workbook: %w", err))
	}
	defer f.Close()

	wb := &Workbook{Month: month, Checksum: hex.EncodeToString(sum[:])}
	for _, name := range f.GetSheetList() {
		day, ok := sheetDay(name, month)
		if !ok {
			wb.SkippedSheets = append(wb.SkippedSheets, name)
			continue
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		date := month.Date(day)
		for i := firstDataRow; i < len(rows); i++ {
			in, skip, err := rowInput(rows[i], date)
			switch {
			case skip:
				wb.SkippedRows++
			case err != nil:
				wb.Errors = append(wb.Errors, RowError{Sheet: name, Row: i + 1, Err: err})
			default:
				wb.Inputs = append(wb.Inputs, in)
			}
		}
	}
	return wb, nil
}

func sheetDay(name string, month core.MonthKey) (int, bool) {
	day, err := strconv.Atoi(strings.TrimSpace(name))
	if err != nil || day < 1 || day > month.Days() {
		return 0, false
	}
	return day, true
}

func rowInput(row []string, date string) (core.EntryInput, bool, error) {
	title := strings.TrimSpace(cell(row, colTitle))
	if title == "" {
		return core.EntryInput{}, true, nil
	}
	in := core.EntryInput{Date: date, Title: title}
	fields := []struct {
		name string
		col  int
		dst  *core.Money
	}{
		{"incomeCash", colIncomeCash, &in.IncomeCash},
		{"incomeTransfer", colIncomeTransfer, &in.IncomeTransfer},
		{"expenseCash", colExpenseCash, &in.ExpenseCash},
		{"expenseTransfer", colExpenseTransfer, &in.ExpenseTransfer},
	}
	for _, fld := range fields {
		m, err := cellAmount(cell(row, fld.col))
		if err != nil {
			return core.EntryInput{}, false, core.Invalid(fld.name, err)
		}
		*fld.dst = m
	}
	if err := in.Validate(); err != nil {
		return core.EntryInput{}, false, err
	}
	return in, false, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// cellAmount treats an empty cell or a dash as zero.
func cellAmount(s string) (core.Money, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return core.Money{}, nil
	}
	return core.ParseAmount(s)
}
