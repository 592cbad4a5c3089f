package services

import (
	"testing"

	"perks/internal/core"
)

func TestAggregateCreditsGroupsByBenefitAndPeriod(t *testing.T) {
	_, defs := matcherFixtures()
	matched := []core.CreditMatch{
		{Transaction: tx("t1", core.NewDate(2025, 1, 5), 1500), BenefitID: "uber", PeriodID: "uber-2025-p1"},
		{Transaction: tx("t2", core.NewDate(2025, 2, 5), 1500), BenefitID: "uber", PeriodID: "uber-2025-p2"},
		{Transaction: tx("t3", core.NewDate(2025, 1, 20), 2500), BenefitID: "dining", PeriodID: "dining-2025-p1"},
	}

	usage := AggregateCredits(matched, defs)
	if len(usage) != 2 {
		t.Fatalf("got %d benefits, want 2", len(usage))
	}
	uber := usage["uber"]
	if len(uber.Periods) != 2 {
		t.Fatalf("uber periods = %d, want 2", len(uber.Periods))
	}
	if got := uber.Periods["uber-2025-p1"].Used.Cents; got != 1500 {
		t.Errorf("p1 used = %d, want 1500", got)
	}
	if got := usage["dining"].Periods["dining-2025-p1"].Used.Cents; got != 2500 {
		t.Errorf("dining used = %d, want 2500", got)
	}
}

func TestAggregateCreditsTrimsCapCrossing(t *testing.T) {
	defs := []core.BenefitDefinition{{
		ID: "airline", CardID: "card", Name: "Airline Fee",
		CreditCents: 10000, Frequency: core.Annual, StartDate: core.NewDate(2023, 1, 1),
	}}
	// $120 against a $100 annual cap.
	matched := []core.CreditMatch{
		{Transaction: tx("t1", core.NewDate(2025, 2, 1), 12000), BenefitID: "airline", PeriodID: "airline-2025-p1"},
	}

	usage := AggregateCredits(matched, defs)
	pu := usage["airline"].Periods["airline-2025-p1"]
	if pu.Used.Cents != 10000 {
		t.Errorf("used = %d, want capped 10000", pu.Used.Cents)
	}
	if got := pu.Transactions[0].Amount.Cents; got != 10000 {
		t.Errorf("crossing transaction trimmed to %d, want 10000", got)
	}
}

func TestAggregateCreditsCapLaw(t *testing.T) {
	defs := []core.BenefitDefinition{{
		ID: "dining", CardID: "card", Name: "Dining",
		CreditCents: 40000, Frequency: core.Quarterly, StartDate: core.NewDate(2023, 1, 1),
	}}
	// 60 + 60 + 30 against a $100 quarterly cap: the second entry is trimmed
	// by the excess, the third drops to zero, none are removed.
	matched := []core.CreditMatch{
		{Transaction: tx("t1", core.NewDate(2025, 1, 5), 6000), BenefitID: "dining", PeriodID: "dining-2025-p1"},
		{Transaction: tx("t2", core.NewDate(2025, 1, 15), 6000), BenefitID: "dining", PeriodID: "dining-2025-p1"},
		{Transaction: tx("t3", core.NewDate(2025, 1, 25), 3000), BenefitID: "dining", PeriodID: "dining-2025-p1"},
	}

	usage := AggregateCredits(matched, defs)
	pu := usage["dining"].Periods["dining-2025-p1"]
	if pu.Used.Cents != 10000 {
		t.Fatalf("used = %d, want 10000", pu.Used.Cents)
	}
	if len(pu.Transactions) != 3 {
		t.Fatalf("transactions = %d, want all 3 preserved", len(pu.Transactions))
	}

	wantAmounts := []int64{6000, 4000, 0}
	var sum int64
	for i, want := range wantAmounts {
		got := pu.Transactions[i].Amount.Cents
		if got != want {
			t.Errorf("transaction %d amount = %d, want %d", i, got, want)
		}
		sum += got
	}
	if sum != pu.Used.Cents {
		t.Errorf("sum of transactions %d != used %d", sum, pu.Used.Cents)
	}
}

func TestAggregateCreditsFlatBucketUncapped(t *testing.T) {
	_, defs := matcherFixtures()
	matched := []core.CreditMatch{
		{Transaction: tx("t1", core.NewDate(2025, 3, 1), 50000), BenefitID: "dining", PeriodID: ""},
	}

	usage := AggregateCredits(matched, defs)
	u := usage["dining"]
	if len(u.Transactions) != 1 || u.Transactions[0].Amount.Cents != 50000 {
		t.Errorf("flat bucket transactions = %+v, want original amount preserved", u.Transactions)
	}
}

func TestAggregateCreditsUnknownBenefitPassesThrough(t *testing.T) {
	_, defs := matcherFixtures()
	matched := []core.CreditMatch{
		{Transaction: tx("t1", core.NewDate(2025, 3, 1), 1000), BenefitID: "retired", PeriodID: "retired-2025-p1"},
	}

	usage := AggregateCredits(matched, defs)
	if _, ok := usage["retired"]; !ok {
		t.Fatal("usage for unknown benefit was dropped")
	}
}
