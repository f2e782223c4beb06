package logging

// Standardized structured logging keys.
const (
	FieldComponent = "component"
	FieldBatch     = "batch"
	FieldListing   = "listing"
	FieldLine      = "line"
	FieldFilename  = "filename"
	FieldStatus    = "status"
	FieldOutcome   = "outcome"
	FieldPath      = "path"
	FieldRunID     = "run_id"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)
