package services

import (
	"testing"

	"perks/internal/core"
)

func TestClassifyCreditChargeFamily(t *testing.T) {
	tests := []struct {
		name        string
		cents       int64
		description string
		want        bool
	}{
		{"amex credit", -1500, "AMEX CREDIT UBER", true},
		{"platinum uber cash", -1500, "PLATINUM UBER CASH CREDIT", true},
		{"plat word token", -1500, "PLAT CREDIT DINING", true},
		{"american express brand", -20000, "AMERICAN EXPRESS AIRLINE FEE REIMBURSEMENT", true},
		{"payment rejected", -10000, "PAYMENT RECEIVED - THANK YOU", false},
		{"autopay rejected", -10000, "AUTOPAY CREDIT AMEX", false},
		{"positive amount rejected", 1500, "AMEX CREDIT UBER", false},
		{"no brand token", -1500, "UBER EATS CREDIT", false},
		{"brand without credit keyword", -1500, "AMEX MEMBERSHIP FEE", false},
		{"platter is not plat", -1500, "CHEESE PLATTER CREDIT", false},
		{"zero amount", 0, "AMEX CREDIT", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyCredit(core.Money{Cents: tt.cents}, tt.description, core.FamilyCharge, "")
			if got != tt.want {
				t.Errorf("ClassifyCredit(%d, %q) = %v, want %v", tt.cents, tt.description, got, tt.want)
			}
		})
	}
}

func TestClassifyCreditBankFamily(t *testing.T) {
	tests := []struct {
		name   string
		cents  int64
		txType string
		want   bool
	}{
		{"positive adjustment", 30000, "Adjustment", true},
		{"lowercase adjustment", 30000, "adjustment", true},
		{"padded type", 30000, " Adjustment ", true},
		{"payment type", 30000, "Payment", false},
		{"return type", 1500, "Return", false},
		{"negative adjustment", -30000, "Adjustment", false},
		{"empty type", 30000, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyCredit(core.Money{Cents: tt.cents}, "TRAVEL CREDIT", core.FamilyBank, tt.txType)
			if got != tt.want {
				t.Errorf("ClassifyCredit(%d, type=%q) = %v, want %v", tt.cents, tt.txType, got, tt.want)
			}
		})
	}
}

func TestClassifyCreditUnknownFamily(t *testing.T) {
	if ClassifyCredit(core.Money{Cents: -1500}, "AMEX CREDIT", "debit", "") {
		t.Error("unknown family must never classify a credit")
	}
}
