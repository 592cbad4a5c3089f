package services

import (
	"perks/internal/core"
)

// BuildUsageSnapshot derives the complete usage view of one benefit for one
// viewing year. It is a pure function of (definition, state, year, clock):
// calling it twice with identical inputs yields identical output, and
// missing user state is never an error — the zero value applies.
func BuildUsageSnapshot(def core.BenefitDefinition, state core.BenefitUserState, year int, clock Clock) core.Snapshot {
	y := ResolveViewingYear(year, clock)
	now := today(clock)

	snap := core.Snapshot{Status: core.StatusPending}
	snap.EffectiveStart, snap.EffectiveEnd = effectiveWindow(def, y)
	windowEmpty := snap.EffectiveStart.IsZero()

	periods := GeneratePeriods(def, y)
	if len(periods) == 0 {
		buildFlatSnapshot(&snap, def, state, y, now, windowEmpty)
		return snap
	}

	cap := perPeriodCap(def)
	multiYear := def.Frequency.CycleYears() > 1 && len(def.Periods) == 0

	var currentUsed int64
	for i := range periods {
		p := &periods[i]
		p.Transactions = state.PeriodTransactions[p.ID]

		total := sumTransactions(p.Transactions)
		inYear := total
		if multiYear {
			inYear = 0
			for _, tx := range p.Transactions {
				if tx.Date.Year() == y {
					inYear += tx.Amount.Cents
				} else if snap.ClaimedElsewhereYear == 0 {
					snap.ClaimedElsewhereYear = tx.Date.Year()
				}
			}
		}

		// Used never exceeds the fair-share cap, and for multi-year
		// cycles counts only the viewed year so a credit claimed in a
		// sibling year is never double-counted.
		p.Used = core.Money{Cents: minInt64(inYear, cap)}
		currentUsed += p.Used.Cents

		switch {
		case cap > 0 && total >= cap:
			p.Status = core.StatusCompleted
		case p.EndDate.Before(now):
			p.Status = core.StatusMissed
		default:
			p.Status = core.StatusPending
		}
	}

	snap.Periods = periods
	snap.CurrentUsed = core.Money{Cents: currentUsed}
	snap.YearTransactions = collectYearTransactions(state, periods, snap.EffectiveStart, snap.EffectiveEnd)
	snap.Status = overallStatus(periods, y, now, snap.EffectiveEnd)
	return snap
}

// MergeBenefit assembles the single merged view model from a definition, its
// user state, and the derived snapshot. Every caller that needs a
// "benefit-like" value goes through here so the merge invariants hold
// everywhere.
func MergeBenefit(def core.BenefitDefinition, state core.BenefitUserState, year int, clock Clock) core.Benefit {
	return core.Benefit{
		Definition: def,
		State:      state,
		Snapshot:   BuildUsageSnapshot(def, state, year, clock),
	}
}

// buildFlatSnapshot handles benefits with no periods for the viewing year:
// either a periods-less definition or a year outside the validity window.
func buildFlatSnapshot(snap *core.Snapshot, def core.BenefitDefinition, state core.BenefitUserState, year int, now core.Date, windowEmpty bool) {
	if windowEmpty {
		// Not applicable this year. A multi-year benefit claimed in a
		// sibling year still surfaces where the credit went.
		if def.Frequency.CycleYears() > 1 {
			for _, txs := range state.PeriodTransactions {
				for _, tx := range txs {
					if tx.Date.Year() != year {
						snap.ClaimedElsewhereYear = tx.Date.Year()
						return
					}
				}
			}
		}
		return
	}

	total := sumTransactions(state.Transactions)
	// No per-period ceiling exists, so the overall total is capped at the
	// full credit amount when presented.
	snap.CurrentUsed = core.Money{Cents: minInt64(total, def.CreditCents)}
	snap.YearTransactions = filterByWindow(state.Transactions, snap.EffectiveStart, snap.EffectiveEnd)

	switch {
	case total >= def.CreditCents:
		snap.Status = core.StatusCompleted
	case snap.EffectiveEnd.Before(now):
		snap.Status = core.StatusMissed
	default:
		snap.Status = core.StatusPending
	}
}

// overallStatus derives the benefit-level status from its periods.
// Viewing the current year, only periods that have already started count;
// for past or future years every period counts.
func overallStatus(periods []core.Period, year int, now core.Date, effectiveEnd core.Date) core.Status {
	applicable := periods
	if year == now.Year() {
		applicable = nil
		for _, p := range periods {
			if !p.StartDate.After(now) {
				applicable = append(applicable, p)
			}
		}
	}

	completed := len(applicable) > 0
	for _, p := range applicable {
		if p.Status != core.StatusCompleted {
			completed = false
			break
		}
	}
	if completed {
		return core.StatusCompleted
	}
	if effectiveEnd.Before(now) {
		return core.StatusMissed
	}
	return core.StatusPending
}

// effectiveWindow intersects the validity window with the target year.
// Zero dates signal an empty intersection. Multi-year cycles keep their
// cycle boundaries instead of the calendar year's.
func effectiveWindow(def core.BenefitDefinition, year int) (core.Date, core.Date) {
	start := core.NewDate(year, 1, 1)
	end := core.NewDate(year, 12, 31)

	if cycle := def.Frequency.CycleYears(); cycle > 1 && len(def.Periods) == 0 {
		ps := cyclePeriods(def, year, cycle)
		if len(ps) == 0 {
			return core.Date{}, core.Date{}
		}
		return ps[0].StartDate, ps[0].EndDate
	}

	if def.StartDate.After(start) {
		start = def.StartDate
	}
	if !def.EndDate.IsZero() && def.EndDate.Before(end) {
		end = def.EndDate
	}
	if start.After(end) {
		return core.Date{}, core.Date{}
	}
	return start, end
}

// collectYearTransactions gathers every stored transaction, period-bucketed
// or flat, whose date falls inside the effective window.
func collectYearTransactions(state core.BenefitUserState, periods []core.Period, start, end core.Date) []core.StoredTransaction {
	if start.IsZero() {
		return nil
	}
	var out []core.StoredTransaction
	for _, p := range periods {
		out = append(out, filterByWindow(state.PeriodTransactions[p.ID], start, end)...)
	}
	out = append(out, filterByWindow(state.Transactions, start, end)...)
	return out
}

func filterByWindow(txs []core.StoredTransaction, start, end core.Date) []core.StoredTransaction {
	var out []core.StoredTransaction
	for _, tx := range txs {
		if tx.Date.In(start, end) {
			out = append(out, tx)
		}
	}
	return out
}

func sumTransactions(txs []core.StoredTransaction) int64 {
	var total int64
	for _, tx := range txs {
		total += tx.Amount.Cents
	}
	return total
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
