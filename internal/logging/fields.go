package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldJobID is the standardized structured logging key for render job identifiers.
	FieldJobID = "job_id"
	// FieldVideoID is the standardized structured logging key for job folder names.
	FieldVideoID = "video_id"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies a log line for filtering (job_started, plan_built, ...).
	FieldEventType = "event_type"
	// FieldErrorKind carries services.Kind of a failure.
	FieldErrorKind = "error_kind"
	// FieldErrorHint suggests the next step for an operator.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)
