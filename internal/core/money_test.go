package core

import (
	"errors"
	"testing"
)

func TestParseSignedCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "plain dollars", input: "15.00", want: 1500},
		{name: "negative", input: "-15.00", want: -1500},
		{name: "explicit plus", input: "+7.50", want: 750},
		{name: "no decimals", input: "42", want: 4200},
		{name: "one decimal", input: "42.5", want: 4250},
		{name: "thousands separator", input: "1,234.56", want: 123456},
		{name: "comma decimal", input: "12,34", want: 1234},
		{name: "european thousands", input: "1.234,56", want: 123456},
		{name: "rounds half up", input: "0.005", want: 1},
		{name: "rounds down", input: "0.004", want: 0},
		{name: "leading dot", input: ".99", want: 99},
		{name: "negative with space", input: "- 3.00", want: -300},
		{name: "empty", input: "", wantErr: true},
		{name: "just sign", input: "-", wantErr: true},
		{name: "letters", input: "abc", wantErr: true},
		{name: "two dots", input: "1.2.3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSignedCents(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("ParseSignedCents(%q) error = %v, want ErrInvalidAmount", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSignedCents(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseSignedCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{1500, "$15.00"},
		{-1500, "-$15.00"},
		{5, "$0.05"},
		{0, "$0.00"},
		{123456, "$1234.56"},
	}
	for _, tt := range tests {
		if got := (Money{Cents: tt.cents}).String(); got != tt.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestMoneyAbs(t *testing.T) {
	if got := (Money{Cents: -1200}).Abs(); got.Cents != 1200 {
		t.Errorf("Abs(-1200) = %d, want 1200", got.Cents)
	}
	if got := (Money{Cents: 1200}).Abs(); got.Cents != 1200 {
		t.Errorf("Abs(1200) = %d, want 1200", got.Cents)
	}
}
