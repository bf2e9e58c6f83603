package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldYear       = "year"
	FieldMonth      = "month"
	FieldSum        = "sum"
	FieldCurrency   = "currency"
	FieldCategory   = "category"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentReport  = "report"
)

// Operations defines standard operation names
const (
	OpAddCost   = "add_cost"
	OpSetRates  = "set_rates"
	OpGetRates  = "get_rates"
	OpGetReport = "get_report"
	OpConvert   = "convert"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)
