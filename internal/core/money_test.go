package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
	}{
		{"1", 1},
		{"12.5", 12.5},
		{" 2.50 ", 2.5},
		{"-3", -3},
		{"0", 0},
		{"", 0},
		{"abc", 0},
		{"NaN", 0},
		{"Inf", 0},
	}
	for _, tc := range cases {
		if got := ParseAmount(tc.in); got != tc.out {
			t.Fatalf("%q expected %v, got %v", tc.in, tc.out, got)
		}
	}
}

func TestFormatDollars(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{12.5, "$12.50"},
		{0, "$0.00"},
		{1000, "$1000.00"},
		{-150.25, "$-150.25"},
		{0.005, "$0.01"},
	}
	for _, tc := range cases {
		if got := FormatDollars(tc.in); got != tc.want {
			t.Fatalf("FormatDollars(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatWholeDollars(t *testing.T) {
	if got := FormatWholeDollars(12.4); got != "$12" {
		t.Fatalf("got %q", got)
	}
	if got := FormatWholeDollars(0); got != "$0" {
		t.Fatalf("got %q", got)
	}
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber(85); got != "85" {
		t.Fatalf("got %q", got)
	}
	if got := FormatNumber(85.5); got != "85.5" {
		t.Fatalf("got %q", got)
	}
}
