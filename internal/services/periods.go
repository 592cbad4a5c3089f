// Package services implements the benefit usage reconciliation engine:
// period generation, snapshot building, credit classification, matching,
// aggregation, and portfolio statistics. Everything here is a pure,
// re-entrant computation over in-memory data.
package services

import (
	"fmt"

	"perks/internal/core"
)

// GeneratePeriods produces the ordered, non-overlapping periods of a benefit
// for the target year, clipped to the benefit's validity window. Explicit
// periods on the definition always take precedence over cadence-derived
// boundaries. A year of zero means the benefit's full lifetime; for
// open-ended definitions without explicit periods that falls back to the
// start year. A target year entirely outside the validity window yields nil.
//
// Period ids are deterministic for a given (benefit, year, index) so stored
// usage re-associates after regeneration.
func GeneratePeriods(def core.BenefitDefinition, year int) []core.Period {
	if len(def.Periods) > 0 {
		return explicitPeriods(def, year)
	}
	if cycle := def.Frequency.CycleYears(); cycle > 1 {
		return cyclePeriods(def, year, cycle)
	}

	count := def.Frequency.PeriodsPerYear()
	if count <= 0 {
		// Malformed cadence is a data error: zero periods, never a panic.
		return nil
	}

	if year <= 0 {
		endYear := def.StartDate.Year()
		if !def.EndDate.IsZero() {
			endYear = def.EndDate.Year()
		}
		var all []core.Period
		for y := def.StartDate.Year(); y <= endYear; y++ {
			all = append(all, GeneratePeriods(def, y)...)
		}
		return all
	}

	// Equal-length contiguous calendar segments. A benefit starting
	// mid-year keeps calendar-aligned boundaries; only the first and last
	// segments are clipped to the validity window.
	monthsPer := 12 / count
	var out []core.Period
	for i := 0; i < count; i++ {
		segStart := core.NewDate(year, i*monthsPer+1, 1)
		segEnd := core.DateOf(segStart.AddDate(0, monthsPer, -1))
		p, ok := clipToWindow(def, core.Period{
			ID:        fmt.Sprintf("%s-%d-p%d", def.ID, year, i+1),
			StartDate: segStart,
			EndDate:   segEnd,
		})
		if ok {
			out = append(out, p)
		}
	}
	return out
}

// cyclePeriods handles multi-year cadences: one period spans the full cycle
// and the target year selects which cycle it falls in.
func cyclePeriods(def core.BenefitDefinition, year, cycle int) []core.Period {
	epoch := def.StartDate.Year()
	if year <= 0 {
		year = epoch
	}
	if year < epoch {
		return nil
	}
	idx := (year - epoch) / cycle
	start := core.DateOf(def.StartDate.AddDate(idx*cycle, 0, 0))
	end := core.DateOf(start.AddDate(cycle, 0, -1))
	p, ok := clipToWindow(def, core.Period{
		ID:        fmt.Sprintf("%s-c%d", def.ID, idx+1),
		StartDate: start,
		EndDate:   end,
	})
	if !ok {
		return nil
	}
	return []core.Period{p}
}

// explicitPeriods returns the definition's own boundaries, clipped to the
// validity window, filtered to those intersecting the target year.
func explicitPeriods(def core.BenefitDefinition, year int) []core.Period {
	var out []core.Period
	for _, b := range def.Periods {
		p, ok := clipToWindow(def, core.Period{ID: b.ID, StartDate: b.StartDate, EndDate: b.EndDate})
		if !ok {
			continue
		}
		if year > 0 && !intersectsYear(p, year) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// clipToWindow clamps a period to [StartDate, EndDate]. Boundaries outside
// the window are a data error handled by clipping, never by failing.
func clipToWindow(def core.BenefitDefinition, p core.Period) (core.Period, bool) {
	if p.StartDate.Before(def.StartDate) {
		p.StartDate = def.StartDate
	}
	if !def.EndDate.IsZero() && p.EndDate.After(def.EndDate) {
		p.EndDate = def.EndDate
	}
	if p.StartDate.After(p.EndDate) {
		return core.Period{}, false
	}
	return p, true
}

func intersectsYear(p core.Period, year int) bool {
	yearStart := core.NewDate(year, 1, 1)
	yearEnd := core.NewDate(year, 12, 31)
	return !p.EndDate.Before(yearStart) && !p.StartDate.After(yearEnd)
}

// periodContaining resolves a date to the period that contains it, if any.
func periodContaining(periods []core.Period, d core.Date) (core.Period, bool) {
	for _, p := range periods {
		if d.In(p.StartDate, p.EndDate) {
			return p, true
		}
	}
	return core.Period{}, false
}

// perPeriodCap is the fair-share credit ceiling for one period: the full
// credit amount divided by the cadence's period count. Multi-year cycles
// carry the whole amount in their single period.
func perPeriodCap(def core.BenefitDefinition) int64 {
	if len(def.Periods) > 0 {
		return def.CreditCents / int64(len(def.Periods))
	}
	if count := def.Frequency.PeriodsPerYear(); count > 0 {
		return def.CreditCents / int64(count)
	}
	return def.CreditCents
}
