package log

// Common field names for structured logging.
const (
	FieldComponent = "component"
	FieldCardID    = "card_id"
	FieldBenefitID = "benefit_id"
	FieldPeriodID  = "period_id"
	FieldYear      = "year"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
	FieldCount     = "count"
)
