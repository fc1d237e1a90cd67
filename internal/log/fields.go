package log

// Structured field names.
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
	FieldUserID    = "user_id"
	FieldLogin     = "login"
	FieldCount     = "count"
	FieldDropped   = "dropped"
	FieldStatus    = "status_code"
	FieldURL       = "url"
	FieldPath      = "path"
	FieldAge       = "age"
	FieldEventID   = "event_id"
)

// Component names.
const (
	ComponentApp      = "app"
	ComponentPlatform = "platform"
	ComponentPipeline = "pipeline"
	ComponentStore    = "store"
	ComponentDaemon   = "daemon"
	ComponentTUI      = "tui"
)
