package services

import (
	"perks/internal/core"
	"perks/internal/statement"
)

// ReconcileStatement runs the classify → match → aggregate pipeline over
// parsed statement records for one card. The returned report keeps every
// unmatched credit visible for manual investigation; the usage map is ready
// to merge into user state.
func ReconcileStatement(records []statement.Record, card core.Card, defs []core.BenefitDefinition) (core.MatchReport, map[string]core.BenefitUsage) {
	var credits []core.StoredTransaction
	for _, r := range records {
		if !ClassifyCredit(r.Amount, r.Description, card.Family, r.Type) {
			continue
		}
		// Stored transactions always carry the positive credit value;
		// sign conventions stay in the statement layer.
		credits = append(credits, core.StoredTransaction{
			ID:          r.ID,
			Date:        r.Date,
			Description: r.Description,
			Amount:      r.Amount.Abs(),
			Type:        r.Type,
		})
	}

	report := MatchCredits(credits, card, defs)
	usage := AggregateCredits(report.Matched, defs)
	return report, usage
}
