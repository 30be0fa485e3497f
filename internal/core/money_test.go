package core

import (
	"encoding/json"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,234.56", 123456, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"0", 0, true},
		{"-5", -500, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"1000000000000000", 0, false},
		{"1,000,000", 100000000, true},
		{"-12,345.5", -1234550, true},
		{"1,2,3", 0, false},
		{"1234,567", 0, false},
		{"12,34", 0, false},
		{"1,234.5,6", 0, false},
		{",123", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{-50, "-0.50"},
		{123456, "1,234.56"},
		{-123456, "-1,234.56"},
		{100000000, "1,000,000.00"},
		{99999, "999.99"},
	}
	for _, tc := range cases {
		if got := NewMoney(tc.cents).String(); got != tc.want {
			t.Errorf("String(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	var v struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a": 12.5, "b": "1,000"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.A.Cents != 1250 || v.B.Cents != 100000 {
		t.Fatalf("got a=%d b=%d", v.A.Cents, v.B.Cents)
	}
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"a":12.50,"b":1000.00}` {
		t.Fatalf("unexpected json %s", out)
	}
}

func TestMoneyFromFloat(t *testing.T) {
	if got := MoneyFromFloat(0.1 + 0.2); got.Cents != 30 {
		t.Fatalf("expected 30 cents, got %d", got.Cents)
	}
	if got := MoneyFromFloat(-19.999); got.Cents != -2000 {
		t.Fatalf("expected -2000 cents, got %d", got.Cents)
	}
}
