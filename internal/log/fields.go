package log

import "sort"

// Attribute keys shared by every component.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldBytes      = "bytes"
	FieldUserAgent  = "user_agent"
	FieldReferer    = "referer"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldMonth     = "month"
	FieldDate      = "date"
	FieldEntryID   = "entry_id"
	FieldTitle     = "title"
	FieldProfit    = "profit"
	FieldChecksum  = "checksum"
	FieldInserted  = "inserted"
	FieldDuplicate = "duplicate"
)

const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentImport  = "import"
	ComponentWorker  = "worker"
	ComponentBackend = "backend"
)

const (
	OpCreate = "create"
	OpRead   = "read"
	OpUpdate = "update"
	OpDelete = "delete"
	OpList   = "list"
	OpImport = "import"
)

// LogFields accumulates attributes for one log line.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) set(kv ...any) LogFields {
	for i := 0; i+1 < len(kv); i += 2 {
		f[kv[i].(string)] = kv[i+1]
	}
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	if ip == "" {
		return f
	}
	return f.set(FieldClientIP, ip)
}

func (f LogFields) WithError(err error) LogFields {
	if err == nil {
		return f
	}
	return f.set(FieldError, err.Error())
}

func (f LogFields) WithOperation(op string) LogFields {
	return f.set(FieldOperation, op)
}

// WithEntry identifies a ledger entry; profit is the formatted amount.
func (f LogFields) WithEntry(id, date, title, profit string) LogFields {
	return f.set(FieldEntryID, id, FieldDate, date, FieldTitle, title, FieldProfit, profit)
}

func (f LogFields) WithMonth(month string) LogFields {
	return f.set(FieldMonth, month)
}

// WithImport describes one workbook import outcome.
func (f LogFields) WithImport(checksum string, inserted int, duplicate bool) LogFields {
	return f.set(FieldChecksum, checksum, FieldInserted, inserted, FieldDuplicate, duplicate)
}

// WithHTTPRequest skips empty values so completion lines stay short.
func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f.set(FieldMethod, method, FieldPath, path)
	for k, v := range map[string]string{FieldQuery: query, FieldUserAgent: userAgent, FieldReferer: referer} {
		if v != "" {
			f[k] = v
		}
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, bytes int) LogFields {
	return f.set(FieldStatusCode, statusCode, FieldDuration, durationMs, FieldBytes, bytes)
}

// ToSlice flattens the fields into slog key/value pairs ordered by key.
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, 0, len(f)*2)
	for _, k := range keys {
		out = append(out, k, f[k])
	}
	return out
}
