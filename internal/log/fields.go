package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldErrorType  = "error_type"
	FieldOperation  = "operation"
	FieldEntryID    = "entry_id"
	FieldPaymentID  = "payment_id"
	FieldReportID   = "report_id"
	FieldEntryType  = "entry_type"
	FieldAmount     = "amount"
	FieldMonths     = "months"
	FieldStartDate  = "start_date"
	FieldStatus     = "status"
)

const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentEntries   = "entries"
	ComponentAggregate = "aggregate"
	ComponentDashboard = "dashboard"
	ComponentReports   = "reports"
	ComponentSettings  = "settings"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentReminder  = "reminder"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
	ComponentBackend   = "backend"
)

const (
	OpCreate    = "create"
	OpRead      = "read"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpList      = "list"
	OpAggregate = "aggregate"
	OpMigrate   = "migrate"
	OpReset     = "reset"
	OpPublish   = "publish"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeMigration     = "migration_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithErrorType(t string) LogFields {
	f[FieldErrorType] = t
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithEntry adds the schedule-defining fields of an entry.
func (f LogFields) WithEntry(id, entryType, amount string, months int, startDate string) LogFields {
	f[FieldEntryID] = id
	f[FieldEntryType] = entryType
	f[FieldAmount] = amount
	f[FieldMonths] = months
	f[FieldStartDate] = startDate
	return f
}

func (f LogFields) WithEntryID(id string) LogFields {
	f[FieldEntryID] = id
	return f
}

func (f LogFields) WithPayment(id, status string) LogFields {
	f[FieldPaymentID] = id
	f[FieldStatus] = status
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
