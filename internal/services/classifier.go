package services

import (
	"regexp"
	"strings"

	"perks/internal/core"
)

// platWord matches "plat" as a whole word so "platter" never reads as a
// brand token while "PLAT CREDIT" does.
var platWord = regexp.MustCompile(`(?i)\bplat\b`)

// ClassifyCredit reports whether a raw statement line is a benefit credit
// candidate. Rules are card-family-specific and the function is pure: it
// gives identical results during import and during later display tagging.
func ClassifyCredit(amount core.Money, description string, family core.CardFamily, txType string) bool {
	switch family {
	case core.FamilyCharge:
		return classifyChargeCredit(amount, description)
	case core.FamilyBank:
		return classifyBankCredit(amount, txType)
	default:
		return false
	}
}

// classifyChargeCredit implements the charge-family convention: credits are
// negative, payments never count, and a brand token plus a credit keyword
// are both required.
func classifyChargeCredit(amount core.Money, description string) bool {
	if amount.Cents >= 0 {
		return false
	}
	desc := strings.ToLower(description)
	if strings.Contains(desc, "payment") || strings.Contains(desc, "autopay") {
		return false
	}
	brand := strings.Contains(desc, "platinum") ||
		strings.Contains(desc, "amex") ||
		strings.Contains(desc, "american express") ||
		platWord.MatchString(desc)
	if !brand {
		return false
	}
	return strings.Contains(desc, "credit") ||
		strings.Contains(desc, "airline fee reimbursement")
}

// classifyBankCredit implements the bank-family convention: credits are
// positive and tagged with an "adjustment" type. Payment and return types
// are rejected even when positive.
func classifyBankCredit(amount core.Money, txType string) bool {
	if amount.Cents <= 0 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(txType), "adjustment")
}
