package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldKey        = "key"
	FieldBytes      = "bytes"
	FieldRevision   = "revision"
	FieldChangeKind = "change_kind"
	FieldTxID       = "transaction_id"
	FieldTxType     = "transaction_type"
	FieldAmount     = "amount"
	FieldCategory   = "category"
	FieldGoalID     = "goal_id"
	FieldWindow     = "window"
	FieldPath       = "path"
	FieldCount      = "count"
	FieldGoals      = "goals"
	FieldBackend    = "backend"
	FieldExchange   = "exchange"
	FieldQueue      = "queue"
	FieldCacheHit   = "cache_hit"
)

// Components defines standard component names
const (
	ComponentApp         = "app"
	ComponentStore       = "store"
	ComponentPersistence = "persistence"
	ComponentStorage     = "storage"
	ComponentBudget      = "budget"
	ComponentAMQP        = "amqp"
	ComponentWorker      = "worker"
	ComponentCache       = "cache"
	ComponentBackend     = "backend"
	ComponentCLI         = "cli"
)

// Operations defines standard operation names
const (
	OpLoad     = "load"
	OpSave     = "save"
	OpExport   = "export"
	OpImport   = "import"
	OpValidate = "validate"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpBackup   = "backup"
	OpPrune    = "prune"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
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

// WithData adds the sizes of a persisted snapshot.
func (f LogFields) WithData(transactions, goals int) LogFields {
	f[FieldCount] = transactions
	f[FieldGoals] = goals
	return f
}

func (f LogFields) WithRevision(rev uint64) LogFields {
	f[FieldRevision] = rev
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
