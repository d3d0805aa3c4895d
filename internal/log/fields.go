package log

// Common field names for structured logging.
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldBackend     = "backend"
	FieldExpenseName = "expense_name"
	FieldCategory    = "category"
	FieldAmount      = "amount"
	FieldBalance     = "balance"
	FieldDate        = "date"
	FieldAlertKind   = "alert_kind"
	FieldTxnID       = "txn_id"
)

// Components defines standard component names.
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentLedger   = "ledger"
	ComponentStorage  = "storage"
	ComponentEvents   = "events"
	ComponentWorker   = "worker"
	ComponentReminder = "reminder"
	ComponentSheets   = "sheets"
)

// Operations defines standard operation names.
const (
	OpInitialize = "initialize"
	OpReset      = "reset"
	OpPost       = "post"
	OpLog        = "log"
	OpAutopay    = "autopay"
	OpList       = "list"
	OpExport     = "export"
	OpStartup    = "startup"
	OpShutdown   = "shutdown"
)
