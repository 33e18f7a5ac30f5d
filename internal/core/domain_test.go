package core

import (
	"errors"
	"testing"
	"time"
)

func TestUserValidate(t *testing.T) {
	good := User{UserID: "u1", Email: "u1@campus.edu", MonthlyBudget: 500}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		u    User
		want error
	}{
		{User{Email: "a@b.c"}, ErrMissingUserID},
		{User{UserID: "u1"}, ErrMissingEmail},
		{User{UserID: "u1", Email: "a@b.c", MonthlyBudget: -1}, ErrInvalidBudget},
	}
	for i, tc := range cases {
		if err := tc.u.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: got %v, want %v", i, err, tc.want)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		ExpenseID: "e1",
		UserID:    "u1",
		Amount:    42.50,
		Category:  CategoryFood,
		Date:      NewDate(2026, 8, 15),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		e    Expense
		want error
	}{
		{Expense{UserID: "", Amount: 1, Category: CategoryFood, Date: NewDate(2026, 8, 15)}, ErrMissingUserID},
		{Expense{UserID: "u1", Amount: 0, Category: CategoryFood, Date: NewDate(2026, 8, 15)}, ErrInvalidAmount},
		{Expense{UserID: "u1", Amount: -5, Category: CategoryFood, Date: NewDate(2026, 8, 15)}, ErrInvalidAmount},
		{Expense{UserID: "u1", Amount: 1, Category: "Snacks", Date: NewDate(2026, 8, 15)}, ErrInvalidCategory},
		{Expense{UserID: "u1", Amount: 1, Category: CategoryFood, Date: Date{Time: time.Time{}}}, ErrInvalidDate},
	}
	for i, tc := range bads {
		if err := tc.e.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: got %v, want %v", i, err, tc.want)
		}
	}
}

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"Food", CategoryFood, true},
		{"food", CategoryFood, true},
		{"  TRAVEL ", CategoryTravel, true},
		{"Snacks", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseCategory(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("ParseCategory(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ParseCategory(%q) expected error", tc.in)
		}
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12.34", 12.34, true},
		{"12,34", 12.34, true},
		{"100", 100, true},
		{"0", 0, false},
		{"-5", 0, false},
		{"+5", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("ParseAmount(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ParseAmount(%q) expected error", tc.in)
		}
	}
}

func TestFormatRupees(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{12.34, "₹12.34"},
		{100, "₹100"},
		{0, "₹0"},
		{-42.5, "-₹42.50"},
	}
	for _, tc := range cases {
		if got := FormatRupees(tc.in); got != tc.want {
			t.Fatalf("FormatRupees(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDateRoundTrip(t *testing.T) {
	d := NewDate(2026, 9, 1)
	if got := d.Key(); got != "2026-09-01" {
		t.Fatalf("Key() = %q", got)
	}

	parsed, err := ParseDate("2026-09-01")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if !parsed.SameDay(d) {
		t.Fatalf("parsed %v, want %v", parsed, d)
	}

	data, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	var back Date
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if !back.SameDay(d) {
		t.Fatalf("round trip %v, want %v", back, d)
	}
}

func TestDateAddDaysAndWeekend(t *testing.T) {
	d := NewDate(2026, 8, 28) // a Friday
	if d.IsWeekend() {
		t.Fatal("Friday should not be a weekend")
	}
	sat := d.AddDays(1)
	if !sat.IsWeekend() {
		t.Fatal("Saturday should be a weekend")
	}
	if got := d.AddDays(4).Key(); got != "2026-09-01" {
		t.Fatalf("AddDays crossed month wrong: %q", got)
	}
}

func TestTotalSpent(t *testing.T) {
	expenses := []Expense{
		{Amount: 10.5},
		{Amount: 20},
		{Amount: 0.25},
	}
	if got := TotalSpent(expenses); got != 30.75 {
		t.Fatalf("TotalSpent = %v", got)
	}
	if got := TotalSpent(nil); got != 0 {
		t.Fatalf("TotalSpent(nil) = %v", got)
	}
}
