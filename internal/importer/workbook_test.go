package importer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"bookkeep/internal/core"
)

func buildWorkbook(t *testing.T, sheets map[string][][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
			first = false
		} else if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		for i, row := range rows {
			axis, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				t.Fatalf("axis: %v", err)
			}
			r := row
			if err := f.SetSheetRow(name, axis, &r); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf
}

var header = []interface{}{"#", "title", "incomeCash", "incomeTransfer", "expenseCash", "expenseTransfer"}

func TestParseMapsSheetsToDays(t *testing.T) {
	buf := buildWorkbook(t, map[string][][]interface{}{
		"1": {
			header,
			{1, "ขายหน้าร้าน", "1,000", "250.50", "", "100"},
			{2, core.CoinTitle, "500"},
			{3, "", "999"},
		},
		"15": {
			header,
			{1, "โอน", "", "2,000.25"},
		},
		"Summary": {
			{"ignored"},
		},
	})

	wb, err := Parse(buf, core.NewMonthKey(2026, 1))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(wb.Inputs) != 3 {
		t.Fatalf("expected 3 inputs, got %d: %+v", len(wb.Inputs), wb.Inputs)
	}
	if wb.SkippedRows != 1 {
		t.Errorf("SkippedRows = %d, want 1", wb.SkippedRows)
	}
	if len(wb.SkippedSheets) != 1 || wb.SkippedSheets[0] != "Summary" {
		t.Errorf("SkippedSheets = %v", wb.SkippedSheets)
	}
	if len(wb.Errors) != 0 {
		t.Errorf("unexpected row errors %v", wb.Errors)
	}

	byTitle := map[string]core.EntryInput{}
	for _, in := range wb.Inputs {
		byTitle[in.Title] = in
	}
	sale := byTitle["ขายหน้าร้าน"]
	if sale.Date != "2026-01-01" || sale.IncomeCash.Cents != 100000 || sale.IncomeTransfer.Cents != 25050 ||
		sale.ExpenseCash.Cents != 0 || sale.ExpenseTransfer.Cents != 10000 {
		t.Errorf("unexpected sale row %+v", sale)
	}
	if byTitle["โอน"].Date != "2026-01-15" || byTitle["โอน"].IncomeTransfer.Cents != 200025 {
		t.Errorf("unexpected transfer row %+v", byTitle["โอน"])
	}
	if byTitle[core.CoinTitle].IncomeCash.Cents != 50000 {
		t.Errorf("unexpected coin row %+v", byTitle[core.CoinTitle])
	}
}

func TestParseReportsBadRows(t *testing.T) {
	buf := buildWorkbook(t, map[string][][]interface{}{
		"3": {
			header,
			{1, "bad", "abc"},
			{2, "negative", "-5"},
			{3, "ok", "10"},
		},
	})
	wb, err := Parse(buf, core.NewMonthKey(2026, 1))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(wb.Inputs) != 1 || wb.Inputs[0].Title != "ok" {
		t.Fatalf("expected only the valid row, got %+v", wb.Inputs)
	}
	if len(wb.Errors) != 2 {
		t.Fatalf("expected 2 row errors, got %v", wb.Errors)
	}
	if wb.Errors[0].Row != 2 || !core.IsValidation(wb.Errors[0]) {
		t.Errorf("unexpected first error %+v", wb.Errors[0])
	}
	if !errors.Is(wb.Errors[1], core.ErrNegativeAmount) {
		t.Errorf("expected negative amount error, got %v", wb.Errors[1])
	}
}

func TestParseSkipsDaysOutsideMonth(t *testing.T) {
	buf := buildWorkbook(t, map[string][][]interface{}{
		"30": {header, {1, "x", "1"}},
		"28": {header, {1, "y", "1"}},
	})
	wb, err := Parse(buf, core.NewMonthKey(2026, 2))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(wb.Inputs) != 1 || wb.Inputs[0].Date != "2026-02-28" {
		t.Fatalf("unexpected inputs %+v", wb.Inputs)
	}
	if len(wb.SkippedSheets) != 1 || wb.SkippedSheets[0] != "30" {
		t.Errorf("SkippedSheets = %v", wb.SkippedSheets)
	}
}

func TestParseChecksumStable(t *testing.T) {
	raw := buildWorkbook(t, map[string][][]interface{}{"1": {header, {1, "x", "1"}}}).Bytes()

	a, err := Parse(bytes.NewReader(raw), core.NewMonthKey(2026, 1))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b, err := Parse(bytes.NewReader(raw), core.NewMonthKey(2026, 1))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if a.Checksum == "" || a.Checksum != b.Checksum {
		t.Fatalf("checksum not stable: %q vs %q", a.Checksum, b.Checksum)
	}
}

func TestParseRejects(t *testing.T) {
	if _, err := Parse(bytes.NewReader([]byte("not a workbook")), core.NewMonthKey(2026, 1)); !core.IsValidation(err) {
		t.Error("expected error for non-xlsx input")
	}
	if _, err := Parse(bytes.NewReader(nil), core.NewMonthKey(2026, 13)); !core.IsValidation(err) {
		t.Errorf("expected validation error for bad month, got %v", err)
	}
}
