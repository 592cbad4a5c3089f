package services

import (
	"perks/internal/core"
)

// CalculateStats rolls merged benefit view models into portfolio-wide
// totals. Ignored benefits are excluded entirely. Year-to-date counts only
// periods whose start date has already begun relative to the clock.
func CalculateStats(benefits []core.Benefit, year int, clock Clock) core.Stats {
	now := today(clock)
	_ = ResolveViewingYear(year, clock) // benefits arrive built for the viewing year

	var stats core.Stats
	for _, b := range benefits {
		if b.State.Ignored {
			continue
		}

		stats.TotalBenefits++
		stats.TotalValueCents += b.Definition.CreditCents
		stats.UsedValueCents += b.CurrentUsed.Cents

		switch b.Status {
		case core.StatusPending:
			stats.PendingCount++
		case core.StatusMissed:
			stats.MissedCount++
		}

		if len(b.Periods) == 0 {
			// Periods-less benefit: the "current period" is the
			// benefit itself.
			if b.EffectiveStart.IsZero() || b.EffectiveStart.After(now) {
				continue
			}
			stats.YTDTotalPeriods++
			if b.Status == core.StatusCompleted {
				stats.YTDCompletedPeriods++
				stats.CurrentPeriodCompleted++
			}
			continue
		}

		for _, p := range b.Periods {
			if p.StartDate.After(now) {
				continue
			}
			stats.YTDTotalPeriods++
			if p.Status == core.StatusCompleted {
				stats.YTDCompletedPeriods++
			}
			if now.In(p.StartDate, p.EndDate) && p.Status == core.StatusCompleted {
				stats.CurrentPeriodCompleted++
			}
		}
	}
	return stats
}
