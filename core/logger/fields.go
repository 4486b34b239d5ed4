package logger

// Standard field names shared by every component that logs about a run.
// Use these instead of literals so log queries stay stable.
const (
	FieldJob        = "job"
	FieldRunID      = "run_id"
	FieldStatus     = "status"
	FieldExitCode   = "exit_code"
	FieldExitName   = "exit_name"
	FieldFetched    = "fetched"
	FieldWritten    = "written"
	FieldFailed     = "failed"
	FieldDuration   = "duration_ms"
	FieldDryRun     = "dry_run"
	FieldNew        = "new"
	FieldUpdated    = "updated"
	FieldUnchanged  = "unchanged"
	FieldRemoved    = "removed"
	FieldTable      = "table"
	FieldKey        = "key"
	FieldIndex      = "index"
	FieldURL        = "url"
	FieldHTTPCode   = "http_status"
	FieldCode       = "status_code"
	FieldChange     = "change"
	FieldDetail     = "detail"
	FieldCause      = "cause"
	FieldExpected   = "expected_min"
	FieldCommitted  = "committed"
	FieldSuppressed = "suppressed_mutations"
)
