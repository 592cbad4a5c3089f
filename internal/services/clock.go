package services

import (
	"time"

	"perks/internal/core"
)

// Clock abstracts "now" so date-sensitive derivations are testable with a
// fixed time instead of the wall clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock is the wall-clock implementation used by production callers.
var SystemClock Clock = systemClock{}

// ResolveViewingYear centralizes the "current year when omitted" rule.
// A year of zero (or negative) resolves to the clock's UTC calendar year.
func ResolveViewingYear(year int, clock Clock) int {
	if year > 0 {
		return year
	}
	if clock == nil {
		clock = SystemClock
	}
	return clock.Now().UTC().Year()
}

func today(clock Clock) core.Date {
	if clock == nil {
		clock = SystemClock
	}
	return core.DateOf(clock.Now())
}
