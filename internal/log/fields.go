package log

// Field names shared by every structured log line.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldKey        = "key"
	FieldStudentID  = "student_id"
	FieldDate       = "date"
	FieldAmount     = "amount"
	FieldCount      = "count"
	FieldRole       = "role"
)

const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentStore     = "store"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentVision    = "vision"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
)

const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpToggle   = "toggle"
	OpBulkMark = "bulk_mark"
	OpConvert  = "convert"
	OpImport   = "import"
	OpExport   = "export"
	OpPublish  = "publish"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// Fields is a small builder for slog key/value pairs.
type Fields map[string]any

func NewFields() Fields {
	return make(Fields)
}

func (f Fields) WithComponent(component string) Fields {
	f[FieldComponent] = component
	return f
}

func (f Fields) WithRequestID(requestID string) Fields {
	if requestID != "" {
		f[FieldRequestID] = requestID
	}
	return f
}

func (f Fields) WithError(err error) Fields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f Fields) WithOperation(op string) Fields {
	f[FieldOperation] = op
	return f
}

// WithPayment tags a ledger cell change.
func (f Fields) WithPayment(studentID, date, amount string) Fields {
	if studentID != "" {
		f[FieldStudentID] = studentID
	}
	f[FieldDate] = date
	f[FieldAmount] = amount
	return f
}

func (f Fields) WithHTTP(method, path string, status int, durationMs int64) Fields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldStatusCode] = status
	f[FieldDuration] = durationMs
	return f
}

// ToSlice flattens the fields for slog's variadic args.
func (f Fields) ToSlice() []any {
	out := make([]any, 0, len(f)*2)
	for k, v := range f {
		out = append(out, k, v)
	}
	return out
}
