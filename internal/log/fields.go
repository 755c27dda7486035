package log

// FieldComponent stamps every record with the owning component.
const FieldComponent = "component"

// Component names used when constructing loggers.
const (
	ComponentApp  = "app"
	ComponentAMQP = "amqp"
)
