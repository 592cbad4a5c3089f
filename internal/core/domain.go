package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	Annual      ResetFrequency = "annual"
	TwiceYearly ResetFrequency = "twice-yearly"
	Quarterly   ResetFrequency = "quarterly"
	Monthly     ResetFrequency = "monthly"
)

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusMissed    Status = "missed"
)

const (
	// FamilyCharge covers statements where credits carry a negative amount
	// and are recognised by brand tokens in the description.
	FamilyCharge CardFamily = "charge"
	// FamilyBank covers statements where credits carry a positive amount
	// and a dedicated "adjustment" type tag.
	FamilyBank CardFamily = "bank"
)

// ConfidenceHigh is the only confidence level produced today. The field is
// kept on CreditMatch so fuzzy matching can be added without an interface
// change.
const ConfidenceHigh = "high"

type (
	// ResetFrequency is a benefit's reset cadence: one of the named
	// constants or an "N-year" multi-year cycle such as "4-year".
	ResetFrequency string

	// Status classifies a period or a whole benefit for a viewing year.
	Status string

	// CardFamily selects the statement conventions of the issuing card.
	CardFamily string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// PeriodBoundary is an explicit period definition carried by a
	// benefit. When present these boundaries override cadence-derived
	// generation.
	PeriodBoundary struct {
		ID        string `yaml:"id" json:"id"`
		StartDate Date   `yaml:"start_date" json:"startDate"`
		EndDate   Date   `yaml:"end_date" json:"endDate"`
	}

	// BenefitDefinition is immutable card-catalog data.
	BenefitDefinition struct {
		ID                 string           `yaml:"id" json:"id"`
		CardID             string           `yaml:"card_id" json:"cardId"`
		Name               string           `yaml:"name" json:"name"`
		Descriptions       []string         `yaml:"descriptions" json:"descriptions,omitempty"`
		CreditCents        int64            `yaml:"credit_cents" json:"creditCents"`
		Frequency          ResetFrequency   `yaml:"frequency" json:"frequency"`
		EnrollmentRequired bool             `yaml:"enrollment_required" json:"enrollmentRequired"`
		StartDate          Date             `yaml:"start_date" json:"startDate"`
		EndDate            Date             `yaml:"end_date" json:"endDate"` // zero = open-ended
		Category           string           `yaml:"category" json:"category"`
		Periods            []PeriodBoundary `yaml:"periods" json:"periods,omitempty"`
	}

	// MatchRule maps a description pattern to a benefit. Rules are
	// evaluated in catalog order, first match wins.
	MatchRule struct {
		Pattern   string `yaml:"pattern" json:"pattern"`
		BenefitID string `yaml:"benefit_id" json:"benefitId"`
	}

	// Card is catalog data for one credit card.
	Card struct {
		ID         string      `yaml:"id" json:"id"`
		Name       string      `yaml:"name" json:"name"`
		Family     CardFamily  `yaml:"family" json:"family"`
		CreditGate string      `yaml:"credit_gate" json:"-"`
		MatchRules []MatchRule `yaml:"match_rules" json:"-"`
	}

	// StoredTransaction is a statement line kept in the user store.
	// Amount is always the positive credit value regardless of the sign
	// conventions of the source statement.
	StoredTransaction struct {
		ID          string `json:"id"`
		Date        Date   `json:"date"`
		Description string `json:"description"`
		Amount      Money  `json:"amountCents"`
		Type        string `json:"type,omitempty"`
	}

	// BenefitUserState is the mutable, user-owned side of a benefit.
	// The zero value is the lazily-created default.
	BenefitUserState struct {
		Enrolled               bool                           `json:"enrolled"`
		Ignored                bool                           `json:"ignored"`
		Notes                  string                         `json:"notes,omitempty"`
		ActivationAcknowledged bool                           `json:"activationAcknowledged,omitempty"`
		PeriodTransactions     map[string][]StoredTransaction `json:"periodTransactions,omitempty"`
		Transactions           []StoredTransaction            `json:"transactions,omitempty"` // flat, non-period bucket
	}

	// Period is a derived sub-interval of a benefit's cycle. It is
	// recomputed on every read and never persisted as such.
	Period struct {
		ID           string              `json:"id"`
		StartDate    Date                `json:"startDate"`
		EndDate      Date                `json:"endDate"`
		Used         Money               `json:"usedCents"`
		Status       Status              `json:"status"`
		Transactions []StoredTransaction `json:"transactions,omitempty"`
	}

	// Snapshot is the fully-derived usage view of one benefit for one
	// viewing year.
	Snapshot struct {
		CurrentUsed          Money               `json:"currentUsedCents"`
		Status               Status              `json:"status"`
		Periods              []Period            `json:"periods"`
		EffectiveStart       Date                `json:"effectiveStartDate"`
		EffectiveEnd         Date                `json:"effectiveEndDate"`
		YearTransactions     []StoredTransaction `json:"yearTransactions,omitempty"`
		ClaimedElsewhereYear int                 `json:"claimedElsewhereYear,omitempty"` // 0 = not claimed elsewhere
	}

	// Benefit is the merged view model: definition + user state + derived
	// snapshot. Assembled only by services.MergeBenefit.
	Benefit struct {
		Definition BenefitDefinition `json:"definition"`
		State      BenefitUserState  `json:"state"`
		Snapshot
	}

	// CreditMatch attributes one classified credit to a benefit and,
	// when the date falls inside a generated period, to that period.
	CreditMatch struct {
		Transaction StoredTransaction `json:"transaction"`
		BenefitID   string            `json:"benefitId"`
		BenefitName string            `json:"benefitName"`
		PeriodID    string            `json:"periodId,omitempty"` // empty = flat bucket
		Confidence  string            `json:"confidence"`
	}

	// MatchReport is the outcome of matching a batch of credits.
	// Unmatched credits are preserved, never dropped.
	MatchReport struct {
		Matched        []CreditMatch       `json:"matched"`
		Unmatched      []StoredTransaction `json:"unmatched"`
		TotalMatched   int                 `json:"totalMatched"`
		TotalUnmatched int                 `json:"totalUnmatched"`
	}

	// PeriodUsage is aggregated, capped usage for one period.
	PeriodUsage struct {
		Used         Money               `json:"usedCents"`
		Transactions []StoredTransaction `json:"transactions"`
	}

	// BenefitUsage is the aggregator's output for one benefit, ready to
	// merge into user state.
	BenefitUsage struct {
		Periods      map[string]PeriodUsage `json:"periods,omitempty"`
		Transactions []StoredTransaction    `json:"transactions,omitempty"`
	}

	// Stats is the portfolio-wide rollup across merged benefits.
	Stats struct {
		TotalBenefits          int   `json:"totalBenefits"`
		TotalValueCents        int64 `json:"totalValueCents"`
		UsedValueCents         int64 `json:"usedValueCents"`
		CurrentPeriodCompleted int   `json:"currentPeriodCompletedCount"`
		YTDCompletedPeriods    int   `json:"ytdCompletedPeriods"`
		YTDTotalPeriods        int   `json:"ytdTotalPeriods"`
		PendingCount           int   `json:"pendingCount"`
		MissedCount            int   `json:"missedCount"`
	}
)

var (
	ErrBenefitNotFound = errors.New("benefit not found")
	ErrPeriodNotFound  = errors.New("period not found")
	ErrCardNotFound    = errors.New("card not found")
	ErrInvalidAmount   = errors.New("invalid amount")
)

// PeriodsPerYear maps a cadence to its per-year period count. Multi-year
// cadences return 0: they produce a single period spanning the whole cycle.
func (f ResetFrequency) PeriodsPerYear() int {
	switch f {
	case Annual:
		return 1
	case TwiceYearly:
		return 2
	case Quarterly:
		return 4
	case Monthly:
		return 12
	default:
		return 0
	}
}

// CycleYears returns the cycle length in years: 1 for intra-year cadences,
// N for an "N-year" cadence, 0 for anything unrecognised.
func (f ResetFrequency) CycleYears() int {
	if f.PeriodsPerYear() > 0 {
		return 1
	}
	s := string(f)
	if idx := strings.Index(s, "-year"); idx > 0 {
		if n, err := strconv.Atoi(s[:idx]); err == nil && n > 1 {
			return n
		}
	}
	return 0
}

func (f ResetFrequency) Valid() bool {
	return f.PeriodsPerYear() > 0 || f.CycleYears() > 1
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusMissed:
		return true
	default:
		return false
	}
}

// NewDate creates a UTC calendar date.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time to its UTC calendar date.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), int(u.Month()), u.Day())
}

func (d Date) Year() int  { return d.Time.Year() }
func (d Date) Month() int { return int(d.Time.Month()) }
func (d Date) Day() int   { return d.Time.Day() }

// IsEmpty reports whether the date is unset (used for optional end dates).
func (d Date) IsEmpty() bool { return d.IsZero() }

// Before and After compare calendar dates, ignoring any time component.
func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool  { return d.Time.After(other.Time) }

// In reports whether the date falls inside [start, end], inclusive on both
// boundaries. A zero end means open-ended.
func (d Date) In(start, end Date) bool {
	if !start.IsZero() && d.Before(start) {
		return false
	}
	if !end.IsZero() && d.After(end) {
		return false
	}
	return true
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d *Date) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (b BenefitDefinition) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return errors.New("benefit id cannot be empty")
	}
	if strings.TrimSpace(b.CardID) == "" {
		return fmt.Errorf("benefit %s: card id cannot be empty", b.ID)
	}
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("benefit %s: name cannot be empty", b.ID)
	}
	if b.CreditCents <= 0 {
		return fmt.Errorf("benefit %s: %w", b.ID, ErrInvalidAmount)
	}
	if !b.Frequency.Valid() {
		return fmt.Errorf("benefit %s: invalid reset frequency %q", b.ID, b.Frequency)
	}
	if b.StartDate.IsZero() {
		return fmt.Errorf("benefit %s: start date cannot be empty", b.ID)
	}
	if !b.EndDate.IsZero() && b.EndDate.Before(b.StartDate) {
		return fmt.Errorf("benefit %s: end date before start date", b.ID)
	}
	for _, p := range b.Periods {
		if strings.TrimSpace(p.ID) == "" {
			return fmt.Errorf("benefit %s: explicit period with empty id", b.ID)
		}
		if p.StartDate.IsZero() || p.EndDate.IsZero() || p.EndDate.Before(p.StartDate) {
			return fmt.Errorf("benefit %s: explicit period %s has invalid boundaries", b.ID, p.ID)
		}
	}
	return nil
}

func (c Card) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errors.New("card id cannot be empty")
	}
	switch c.Family {
	case FamilyCharge, FamilyBank:
	default:
		return fmt.Errorf("card %s: invalid family %q", c.ID, c.Family)
	}
	for _, r := range c.MatchRules {
		if strings.TrimSpace(r.Pattern) == "" || strings.TrimSpace(r.BenefitID) == "" {
			return fmt.Errorf("card %s: match rule with empty pattern or benefit id", c.ID)
		}
	}
	return nil
}
