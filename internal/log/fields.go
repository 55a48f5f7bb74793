package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldCommand   = "command"
	FieldError     = "error"
	FieldOperation = "operation"
	FieldTable     = "table"
	FieldRecordID  = "id"
	FieldShop      = "shop"
	FieldItem      = "item"
	FieldDate      = "date"
	FieldDateFrom  = "date_from"
	FieldDateTo    = "date_to"
	FieldTotal     = "total"
	FieldAmount    = "amount"
	FieldFields    = "fields"
	FieldInput     = "input"
	FieldBackend   = "backend"
	FieldDBPath    = "db_path"
	FieldCount     = "count"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentCLI      = "cli"
	ComponentStorage  = "storage"
	ComponentSales    = "sales"
	ComponentExpenses = "expenses"
	ComponentReport   = "report"
	ComponentBackend  = "backend"
)

// Operations defines standard operation names
const (
	OpCreate = "create"
	OpRead   = "read"
	OpUpdate = "update"
	OpModify = "modify"
	OpDelete = "delete"
	OpList   = "list"
	OpSum    = "sum"
	OpOpen   = "open"
	OpClose  = "close"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithRecord adds the table and record id
func (f LogFields) WithRecord(table string, id int64) LogFields {
	f[FieldTable] = table
	f[FieldRecordID] = id
	return f
}

// WithRange adds canonical date bounds; empty bounds are omitted
func (f LogFields) WithRange(from, to string) LogFields {
	if from != "" {
		f[FieldDateFrom] = from
	}
	if to != "" {
		f[FieldDateTo] = to
	}
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
