package logging

// Standardized structured log field names shared across components.
const (
	FieldComponent = "component"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
	FieldImpact    = "impact"
	FieldItemID    = "item_id"
	FieldRunID     = "run_id"
	FieldStage     = "stage"
	FieldKind      = "kind"
	FieldLanguage  = "language"
	FieldModel     = "model"
)
