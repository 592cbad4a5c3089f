package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"perks/internal/core"
)

func TestLoadEmbedded(t *testing.T) {
	cat, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("embedded catalog failed to load: %v", err)
	}

	if len(cat.Cards()) == 0 {
		t.Fatal("no cards in embedded catalog")
	}
	if len(cat.Benefits()) == 0 {
		t.Fatal("no benefits in embedded catalog")
	}

	card, err := cat.Card("amex-platinum")
	if err != nil {
		t.Fatalf("card lookup: %v", err)
	}
	if card.Family != core.FamilyCharge {
		t.Errorf("amex-platinum family = %q, want charge", card.Family)
	}

	b, err := cat.Benefit("plat-uber")
	if err != nil {
		t.Fatalf("benefit lookup: %v", err)
	}
	if b.Frequency != core.Monthly || b.CreditCents != 18000 {
		t.Errorf("plat-uber = %+v", b)
	}

	benefits := cat.CardBenefits("amex-platinum")
	if len(benefits) == 0 {
		t.Fatal("no benefits for amex-platinum")
	}
	for _, b := range benefits {
		if b.CardID != "amex-platinum" {
			t.Errorf("benefit %s belongs to card %s", b.ID, b.CardID)
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	cat, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if _, err := cat.Card("no-such-card"); !errors.Is(err, core.ErrCardNotFound) {
		t.Errorf("unknown card error = %v, want ErrCardNotFound", err)
	}
	if _, err := cat.Benefit("no-such-benefit"); !errors.Is(err, core.ErrBenefitNotFound) {
		t.Errorf("unknown benefit error = %v, want ErrBenefitNotFound", err)
	}
	if got := cat.CardBenefits("no-such-card"); got != nil {
		t.Errorf("unknown card benefits = %v, want nil", got)
	}
}

func TestCompoundRulesPrecedeSubstrings(t *testing.T) {
	cat, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	card, err := cat.Card("amex-platinum")
	if err != nil {
		t.Fatalf("card: %v", err)
	}

	// "uber eats" must outrank the bare "uber" rule or eats credits
	// misattribute to Uber Cash.
	eatsIdx, uberIdx := -1, -1
	for i, r := range card.MatchRules {
		switch r.BenefitID {
		case "plat-dining":
			if eatsIdx == -1 {
				eatsIdx = i
			}
		case "plat-uber":
			uberIdx = i
		}
	}
	if eatsIdx == -1 || uberIdx == -1 {
		t.Fatal("expected rules missing from catalog")
	}
	if eatsIdx > uberIdx {
		t.Error("uber eats rule is ordered after the bare uber rule")
	}
}

func TestLoadFromFileValidation(t *testing.T) {
	writeCatalog := func(t *testing.T, body string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "catalog.yaml")
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	tests := []struct {
		name string
		body string
	}{
		{"not yaml", "cards: [\n"},
		{"duplicate card", `
cards:
  - {id: c1, name: One, family: charge}
  - {id: c1, name: Two, family: bank}
`},
		{"benefit references unknown card", `
cards:
  - {id: c1, name: One, family: charge}
benefits:
  - {id: b1, card_id: ghost, name: B, credit_cents: 100, frequency: annual, start_date: "2024-01-01"}
`},
		{"rule references unknown benefit", `
cards:
  - id: c1
    name: One
    family: charge
    match_rules:
      - {pattern: "x", benefit_id: ghost}
`},
		{"invalid gate regex", `
cards:
  - {id: c1, name: One, family: charge, credit_gate: "("}
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFromFile(writeCatalog(t, tt.body)); err == nil {
				t.Error("expected load error, got nil")
			}
		})
	}
}
