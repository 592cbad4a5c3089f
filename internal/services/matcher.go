package services

import (
	"regexp"

	"perks/internal/core"
)

// MatchCredits maps classified credit transactions to the card's benefits.
// The card-level gate runs first: a credit whose description lacks the
// brand/issuer token is unmatched regardless of rule content, which keeps
// unrelated refunds from matching a keyword by coincidence. Rules are then
// evaluated in catalog order, first match wins, so more specific patterns
// must precede their substring-overlapping siblings.
//
// Once a benefit is found, the period is resolved by date containment in
// that benefit's periods for the transaction's calendar year; no containing
// period attributes the credit to the benefit's flat bucket. Unmatched
// credits are always preserved in the report.
func MatchCredits(credits []core.StoredTransaction, card core.Card, defs []core.BenefitDefinition) core.MatchReport {
	gate := compilePattern(card.CreditGate)

	type rule struct {
		re        *regexp.Regexp
		benefitID string
	}
	rules := make([]rule, 0, len(card.MatchRules))
	for _, r := range card.MatchRules {
		// Invalid patterns are a catalog data error; skip rather than
		// fail the whole batch. Catalog load validates them upfront.
		if re := compilePattern(r.Pattern); re != nil {
			rules = append(rules, rule{re: re, benefitID: r.BenefitID})
		}
	}

	byID := make(map[string]core.BenefitDefinition, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}

	var report core.MatchReport
	for _, tx := range credits {
		if gate == nil || !gate.MatchString(tx.Description) {
			report.Unmatched = append(report.Unmatched, tx)
			continue
		}

		benefitID := ""
		for _, r := range rules {
			if r.re.MatchString(tx.Description) {
				benefitID = r.benefitID
				break
			}
		}
		def, known := byID[benefitID]
		if benefitID == "" || !known {
			report.Unmatched = append(report.Unmatched, tx)
			continue
		}

		match := core.CreditMatch{
			Transaction: tx,
			BenefitID:   def.ID,
			BenefitName: def.Name,
			Confidence:  core.ConfidenceHigh,
		}
		if p, ok := periodContaining(GeneratePeriods(def, tx.Date.Year()), tx.Date); ok {
			match.PeriodID = p.ID
		}
		report.Matched = append(report.Matched, match)
	}

	report.TotalMatched = len(report.Matched)
	report.TotalUnmatched = len(report.Unmatched)
	return report
}

func compilePattern(pattern string) *regexp.Regexp {
	if pattern == "" {
		return nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil
	}
	return re
}
