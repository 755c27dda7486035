package core

import (
	"strings"
	"testing"
	"time"
)

func TestKindValid(t *testing.T) {
	for _, k := range []Kind{Income, Expense, SavingsMove} {
		if !k.Valid() {
			t.Fatalf("kind %q should be valid", k)
		}
	}
	if Kind("Transfer").Valid() {
		t.Fatalf("unknown kind should be invalid")
	}
	if Kind("").Valid() {
		t.Fatalf("empty kind should be invalid")
	}
}

func TestDateParseAndFormat(t *testing.T) {
	d, err := ParseDate("2025-03-09")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.String() != "2025-03-09" {
		t.Fatalf("got %q", d.String())
	}
	if _, err := ParseDate("09/03/2025"); err == nil {
		t.Fatalf("expected error for wrong format")
	}
	if err := (Date{}).Validate(); err == nil {
		t.Fatalf("zero date should not validate")
	}
}

func TestTodayDropsTimeOfDay(t *testing.T) {
	now := time.Date(2025, 6, 15, 23, 59, 58, 0, time.Local)
	d := Today(now)
	if d.String() != "2025-06-15" {
		t.Fatalf("got %q", d.String())
	}
	if h, m, s := d.Clock(); h != 0 || m != 0 || s != 0 {
		t.Fatalf("time-of-day should be zero, got %d:%d:%d", h, m, s)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Date:     NewDate(2025, 1, 1),
		Kind:     Expense,
		Category: "Makan",
		Amount:   Money{Cents: 1500},
		Note:     "warung",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		name string
		tx   Transaction
		want error
	}{
		{"zero date", Transaction{Kind: Income, Category: "Gaji", Amount: Money{Cents: 1}}, ErrInvalidDate},
		{"unknown kind", Transaction{Date: NewDate(2025, 1, 1), Kind: "Hutang", Category: "x", Amount: Money{Cents: 1}}, ErrInvalidKind},
		{"empty category", Transaction{Date: NewDate(2025, 1, 1), Kind: Income, Category: "  ", Amount: Money{Cents: 1}}, ErrEmptyCategory},
		{"category too long", Transaction{Date: NewDate(2025, 1, 1), Kind: Income, Category: strings.Repeat("x", 101), Amount: Money{Cents: 1}}, ErrCategoryTooLong},
		{"note too long", Transaction{Date: NewDate(2025, 1, 1), Kind: Income, Category: "Gaji", Amount: Money{Cents: 1}, Note: strings.Repeat("x", 201)}, ErrNoteTooLong},
		{"zero amount", Transaction{Date: NewDate(2025, 1, 1), Kind: Income, Category: "Gaji", Amount: Money{Cents: 0}}, ErrInvalidAmount},
		{"negative amount", Transaction{Date: NewDate(2025, 1, 1), Kind: Income, Category: "Gaji", Amount: Money{Cents: -5}}, ErrInvalidAmount},
	}
	for _, tc := range bads {
		if err := tc.tx.Validate(); err != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}
