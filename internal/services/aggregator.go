package services

import (
	"perks/internal/core"
)

// AggregateCredits groups matched credits by (benefit, period), sums the
// amounts, and applies the cap pass: a period's total never exceeds the
// fair-share cap, and the transaction list is trimmed so the two stay
// consistent. Input order is preserved throughout so the trim is
// deterministic and auditable.
//
// Benefits without periods are not capped here — there is no natural
// single-period ceiling — the snapshot builder caps their overall total at
// presentation time.
func AggregateCredits(matched []core.CreditMatch, defs []core.BenefitDefinition) map[string]core.BenefitUsage {
	byID := make(map[string]core.BenefitDefinition, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}

	out := make(map[string]core.BenefitUsage)
	for _, m := range matched {
		u := out[m.BenefitID]
		if m.PeriodID == "" {
			u.Transactions = append(u.Transactions, m.Transaction)
		} else {
			if u.Periods == nil {
				u.Periods = make(map[string]core.PeriodUsage)
			}
			pu := u.Periods[m.PeriodID]
			pu.Transactions = append(pu.Transactions, m.Transaction)
			u.Periods[m.PeriodID] = pu
		}
		out[m.BenefitID] = u
	}

	for id, u := range out {
		def, known := byID[id]
		if !known {
			continue
		}
		cap := perPeriodCap(def)
		for pid, pu := range u.Periods {
			pu.Transactions, pu.Used = capTransactions(pu.Transactions, cap)
			u.Periods[pid] = pu
		}
		out[id] = u
	}
	return out
}

// capTransactions walks transactions in order accumulating a running total.
// The transaction that first crosses the cap is reduced by exactly the
// excess; earlier entries are untouched, later entries are reduced to zero,
// and no entry is ever dropped. The returned total equals the sum of the
// returned transaction amounts.
func capTransactions(txs []core.StoredTransaction, cap int64) ([]core.StoredTransaction, core.Money) {
	out := make([]core.StoredTransaction, len(txs))
	copy(out, txs)

	var running int64
	for i := range out {
		amt := out[i].Amount.Cents
		if running+amt > cap {
			amt = cap - running
			if amt < 0 {
				amt = 0
			}
			out[i].Amount = core.Money{Cents: amt}
		}
		running += amt
	}
	return out, core.Money{Cents: running}
}
