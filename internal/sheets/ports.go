// Package sheets defines the outbound export port for usage summaries.
package sheets

import (
	"context"
)

// UsageRow is one exported snapshot line.
type UsageRow struct {
	CardID      string
	BenefitID   string
	BenefitName string
	Year        int
	UsedCents   int64
	CreditCents int64
	Status      string
}

// UsageExporter appends usage summary rows to an external destination.
type UsageExporter interface {
	ExportUsageRows(ctx context.Context, rows []UsageRow) error
}
