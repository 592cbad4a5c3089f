// Package catalog provides the static card and benefit definitions. The
// catalog is embedded at build time, loaded once per process, validated at
// load, and read-only afterwards.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"perks/internal/core"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

type document struct {
	Cards    []core.Card              `yaml:"cards"`
	Benefits []core.BenefitDefinition `yaml:"benefits"`
}

// Catalog is the immutable card/benefit catalog.
type Catalog struct {
	cards    []core.Card
	benefits []core.BenefitDefinition

	cardsByID      map[string]core.Card
	benefitsByID   map[string]core.BenefitDefinition
	benefitsByCard map[string][]core.BenefitDefinition
}

// LoadEmbedded loads and validates the catalog compiled into the binary.
func LoadEmbedded() (*Catalog, error) {
	return load(embeddedCatalog)
}

// LoadFromFile loads a catalog override from disk, for local development
// and tests.
func LoadFromFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return load(data)
}

func load(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog yaml: %w", err)
	}

	c := &Catalog{
		cards:          doc.Cards,
		benefits:       doc.Benefits,
		cardsByID:      make(map[string]core.Card, len(doc.Cards)),
		benefitsByID:   make(map[string]core.BenefitDefinition, len(doc.Benefits)),
		benefitsByCard: make(map[string][]core.BenefitDefinition),
	}

	for _, card := range doc.Cards {
		if err := card.Validate(); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		if _, dup := c.cardsByID[card.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate card id %s", card.ID)
		}
		if card.CreditGate != "" {
			if _, err := regexp.Compile(card.CreditGate); err != nil {
				return nil, fmt.Errorf("catalog: card %s credit gate: %w", card.ID, err)
			}
		}
		for _, r := range card.MatchRules {
			if _, err := regexp.Compile(r.Pattern); err != nil {
				return nil, fmt.Errorf("catalog: card %s rule %q: %w", card.ID, r.Pattern, err)
			}
		}
		c.cardsByID[card.ID] = card
	}

	for _, b := range doc.Benefits {
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		if _, dup := c.benefitsByID[b.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate benefit id %s", b.ID)
		}
		if _, ok := c.cardsByID[b.CardID]; !ok {
			return nil, fmt.Errorf("catalog: benefit %s references unknown card %s", b.ID, b.CardID)
		}
		c.benefitsByID[b.ID] = b
		c.benefitsByCard[b.CardID] = append(c.benefitsByCard[b.CardID], b)
	}

	for _, card := range doc.Cards {
		for _, r := range card.MatchRules {
			if _, ok := c.benefitsByID[r.BenefitID]; !ok {
				return nil, fmt.Errorf("catalog: card %s rule %q references unknown benefit %s", card.ID, r.Pattern, r.BenefitID)
			}
		}
	}

	return c, nil
}

// Cards returns every card in catalog order.
func (c *Catalog) Cards() []core.Card {
	return c.cards
}

// Benefits returns every benefit definition in catalog order.
func (c *Catalog) Benefits() []core.BenefitDefinition {
	return c.benefits
}

// Card looks up a card by id.
func (c *Catalog) Card(id string) (core.Card, error) {
	card, ok := c.cardsByID[id]
	if !ok {
		return core.Card{}, fmt.Errorf("%w: %s", core.ErrCardNotFound, id)
	}
	return card, nil
}

// Benefit looks up a benefit definition by id.
func (c *Catalog) Benefit(id string) (core.BenefitDefinition, error) {
	b, ok := c.benefitsByID[id]
	if !ok {
		return core.BenefitDefinition{}, fmt.Errorf("%w: %s", core.ErrBenefitNotFound, id)
	}
	return b, nil
}

// CardBenefits returns the benefit definitions of one card in catalog order.
func (c *Catalog) CardBenefits(cardID string) []core.BenefitDefinition {
	return c.benefitsByCard[cardID]
}
