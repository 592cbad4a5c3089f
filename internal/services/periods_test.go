package services

import (
	"reflect"
	"testing"

	"perks/internal/core"
)

func quarterlyDef() core.BenefitDefinition {
	return core.BenefitDefinition{
		ID:          "dining",
		CardID:      "card",
		Name:        "Dining Credit",
		CreditCents: 40000,
		Frequency:   core.Quarterly,
		StartDate:   core.NewDate(2023, 1, 1),
	}
}

func TestGeneratePeriodsCadences(t *testing.T) {
	tests := []struct {
		name      string
		freq      core.ResetFrequency
		wantCount int
	}{
		{"annual", core.Annual, 1},
		{"twice yearly", core.TwiceYearly, 2},
		{"quarterly", core.Quarterly, 4},
		{"monthly", core.Monthly, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := quarterlyDef()
			def.Frequency = tt.freq
			got := GeneratePeriods(def, 2025)
			if len(got) != tt.wantCount {
				t.Fatalf("got %d periods, want %d", len(got), tt.wantCount)
			}

			// Contiguous, non-overlapping, covering the full year.
			if !got[0].StartDate.Equal(core.NewDate(2025, 1, 1).Time) {
				t.Errorf("first period starts %v, want 2025-01-01", got[0].StartDate)
			}
			last := got[len(got)-1]
			if !last.EndDate.Equal(core.NewDate(2025, 12, 31).Time) {
				t.Errorf("last period ends %v, want 2025-12-31", last.EndDate)
			}
			for i := 1; i < len(got); i++ {
				next := core.DateOf(got[i-1].EndDate.AddDate(0, 0, 1))
				if !got[i].StartDate.Equal(next.Time) {
					t.Errorf("period %d starts %v, want %v", i, got[i].StartDate, next)
				}
			}
		})
	}
}

func TestGeneratePeriodsDeterministicIDs(t *testing.T) {
	def := quarterlyDef()
	first := GeneratePeriods(def, 2025)
	second := GeneratePeriods(def, 2025)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("period generation is not deterministic")
	}

	wantIDs := []string{"dining-2025-p1", "dining-2025-p2", "dining-2025-p3", "dining-2025-p4"}
	for i, p := range first {
		if p.ID != wantIDs[i] {
			t.Errorf("period %d id = %q, want %q", i, p.ID, wantIDs[i])
		}
	}
}

func TestGeneratePeriodsClipsToWindow(t *testing.T) {
	def := quarterlyDef()
	def.StartDate = core.NewDate(2025, 2, 15)
	def.EndDate = core.NewDate(2025, 11, 10)

	got := GeneratePeriods(def, 2025)
	if len(got) != 4 {
		t.Fatalf("got %d periods, want 4", len(got))
	}
	if !got[0].StartDate.Equal(core.NewDate(2025, 2, 15).Time) {
		t.Errorf("first period start %v not clipped to validity start", got[0].StartDate)
	}
	if !got[3].EndDate.Equal(core.NewDate(2025, 11, 10).Time) {
		t.Errorf("last period end %v not clipped to validity end", got[3].EndDate)
	}
}

func TestGeneratePeriodsOutsideWindow(t *testing.T) {
	def := quarterlyDef()
	def.EndDate = core.NewDate(2024, 12, 31)
	if got := GeneratePeriods(def, 2026); got != nil {
		t.Errorf("year past validity window: got %d periods, want none", len(got))
	}
	if got := GeneratePeriods(quarterlyDef(), 2020); got != nil {
		t.Errorf("year before validity window: got %d periods, want none", len(got))
	}
}

func TestGeneratePeriodsExplicitPrecedence(t *testing.T) {
	def := quarterlyDef()
	def.Periods = []core.PeriodBoundary{
		{ID: "spring", StartDate: core.NewDate(2025, 3, 1), EndDate: core.NewDate(2025, 5, 31)},
		{ID: "fall", StartDate: core.NewDate(2025, 9, 1), EndDate: core.NewDate(2025, 11, 30)},
	}

	got := GeneratePeriods(def, 2025)
	if len(got) != 2 {
		t.Fatalf("got %d periods, want 2 explicit ones", len(got))
	}
	if got[0].ID != "spring" || got[1].ID != "fall" {
		t.Errorf("explicit period ids = %q, %q", got[0].ID, got[1].ID)
	}
}

func TestGeneratePeriodsMultiYearCycle(t *testing.T) {
	def := quarterlyDef()
	def.ID = "global-entry"
	def.Frequency = "4-year"
	def.StartDate = core.NewDate(2022, 6, 1)

	for _, year := range []int{2022, 2023, 2024, 2025} {
		got := GeneratePeriods(def, year)
		if len(got) != 1 {
			t.Fatalf("year %d: got %d periods, want 1", year, len(got))
		}
		p := got[0]
		if p.ID != "global-entry-c1" {
			t.Errorf("year %d: id = %q, want global-entry-c1", year, p.ID)
		}
		if !p.StartDate.Equal(core.NewDate(2022, 6, 1).Time) || !p.EndDate.Equal(core.NewDate(2026, 5, 31).Time) {
			t.Errorf("year %d: cycle boundaries %v..%v", year, p.StartDate, p.EndDate)
		}
	}

	got := GeneratePeriods(def, 2027)
	if len(got) != 1 || got[0].ID != "global-entry-c2" {
		t.Fatalf("second cycle: got %+v", got)
	}
	if got := GeneratePeriods(def, 2020); got != nil {
		t.Error("year before cycle epoch should yield no periods")
	}
}

func TestGeneratePeriodsLifetime(t *testing.T) {
	def := quarterlyDef()
	def.StartDate = core.NewDate(2024, 1, 1)
	def.EndDate = core.NewDate(2025, 12, 31)

	got := GeneratePeriods(def, 0)
	if len(got) != 8 {
		t.Fatalf("lifetime generation: got %d periods, want 8", len(got))
	}
}

func TestPerPeriodCap(t *testing.T) {
	def := quarterlyDef()
	if cap := perPeriodCap(def); cap != 10000 {
		t.Errorf("quarterly cap = %d, want 10000", cap)
	}

	def.Frequency = "4-year"
	if cap := perPeriodCap(def); cap != 40000 {
		t.Errorf("multi-year cap = %d, want full credit 40000", cap)
	}

	def = quarterlyDef()
	def.Periods = []core.PeriodBoundary{
		{ID: "a", StartDate: core.NewDate(2025, 1, 1), EndDate: core.NewDate(2025, 6, 30)},
		{ID: "b", StartDate: core.NewDate(2025, 7, 1), EndDate: core.NewDate(2025, 12, 31)},
	}
	if cap := perPeriodCap(def); cap != 20000 {
		t.Errorf("explicit-period cap = %d, want 20000", cap)
	}
}
