// Package statement parses raw CSV statement exports into ordered records.
// The reconciliation engine treats these purely as structured input; column
// layout knowledge stays here.
package statement

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"perks/internal/core"
)

// Record is one statement line with its raw signed amount. Field presence
// depends on the export: charge-family statements carry extended details
// and references, bank-family statements carry a type column.
type Record struct {
	ID              string
	Date            core.Date
	Description     string
	Amount          core.Money // signed, statement convention
	Type            string
	ExtendedDetails string
	Category        string
	Reference       string
}

// dateLayouts are tried in order; exports disagree on date formatting.
var dateLayouts = []string{"01/02/2006", "2006-01-02", "1/2/2006"}

// Parse reads a CSV statement export. The first row must be a header naming
// at least Date, Description and Amount columns (case-insensitive); other
// recognised columns are Type, Extended Details, Category and Reference.
// Parse errors propagate unchanged — no partial recovery of corrupt files.
func Parse(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read statement csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("statement csv is empty")
	}

	cols, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		rec, err := parseRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("statement line %d: %w", i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// columnIndex maps recognised header names to their positions; -1 = absent.
type columnIndex struct {
	date, description, amount, typ, details, category, reference int
}

func mapHeader(header []string) (columnIndex, error) {
	cols := columnIndex{date: -1, description: -1, amount: -1, typ: -1, details: -1, category: -1, reference: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date", "transaction date":
			cols.date = i
		case "description":
			cols.description = i
		case "amount":
			cols.amount = i
		case "type", "transaction type":
			cols.typ = i
		case "extended details":
			cols.details = i
		case "category":
			cols.category = i
		case "reference":
			cols.reference = i
		}
	}
	if cols.date < 0 || cols.description < 0 || cols.amount < 0 {
		return cols, fmt.Errorf("statement csv header missing date, description or amount column")
	}
	return cols, nil
}

func parseRow(row []string, cols columnIndex) (Record, error) {
	date, err := parseStatementDate(field(row, cols.date))
	if err != nil {
		return Record{}, err
	}
	cents, err := core.ParseSignedCents(field(row, cols.amount))
	if err != nil {
		return Record{}, fmt.Errorf("amount %q: %w", field(row, cols.amount), err)
	}
	return Record{
		ID:              uuid.New().String(),
		Date:            date,
		Description:     strings.TrimSpace(field(row, cols.description)),
		Amount:          core.Money{Cents: cents},
		Type:            strings.TrimSpace(field(row, cols.typ)),
		ExtendedDetails: strings.TrimSpace(field(row, cols.details)),
		Category:        strings.TrimSpace(field(row, cols.category)),
		Reference:       strings.TrimSpace(field(row, cols.reference)),
	}, nil
}

func parseStatementDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t), nil
		}
	}
	return core.Date{}, fmt.Errorf("unparseable date %q", s)
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isBlankRow(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
