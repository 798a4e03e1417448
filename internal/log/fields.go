package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldInstanceID  = "instance_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldReferer     = "referer"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldErrorType   = "error_type"
	FieldOperation   = "operation"
	FieldSource      = "source"
	FieldLocation    = "location"
	FieldRows        = "rows"
	FieldSkippedRows = "skipped_rows"
	FieldAttempt     = "attempt"
	FieldCacheHit    = "cache_hit"
	FieldStale       = "stale"
	FieldYear        = "year"
	FieldGroups      = "groups"
	FieldArticles    = "articles"
)

// Components
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLoader    = "loader"
	ComponentDashboard = "dashboard"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSource    = "source"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentConfig    = "config"
	ComponentTemplate  = "template"
)

// Operations
const (
	OpLoad       = "load"
	OpFetch      = "fetch"
	OpNormalize  = "normalize"
	OpRefresh    = "refresh"
	OpInvalidate = "invalidate"
	OpRender     = "render"
	OpPublish    = "publish"
	OpConsume    = "consume"
	OpShutdown   = "shutdown"
	OpStartup    = "startup"
)

// Error categories
const (
	ErrorTypeFetch         = "fetch_error"
	ErrorTypeParse         = "parse_error"
	ErrorTypeSchema        = "schema_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeTimeout       = "timeout_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields is a builder for structured log attributes.
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

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithLoad adds the outcome of a sheet load.
func (f LogFields) WithLoad(location string, rows, skipped int, cacheHit bool) LogFields {
	f[FieldLocation] = location
	f[FieldRows] = rows
	f[FieldSkippedRows] = skipped
	f[FieldCacheHit] = cacheHit
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	if referer != "" {
		f[FieldReferer] = referer
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice converts the fields to slog key/value arguments.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
