package domain

// Operation is the envelope verb.
type Operation string

const (
	OperationHello   Operation = "hello"
	OperationVerify  Operation = "verify"
	OperationQuery   Operation = "query"
	OperationRespond Operation = "respond"
	OperationTask    Operation = "task"
	OperationStream  Operation = "stream"
	OperationTool    Operation = "tool"
	OperationConsent Operation = "consent"
	OperationError   Operation = "error"
)

// Valid reports whether the operation is a known verb.
func (o Operation) Valid() bool {
	switch o {
	case OperationHello, OperationVerify, OperationQuery, OperationRespond,
		OperationTask, OperationStream, OperationTool, OperationConsent,
		OperationError:
		return true
	}
	return false
}

// Resource returns the capability resource an envelope with this operation
// is checked against.
func (o Operation) Resource() string {
	return "messages/" + string(o)
}

// Action returns the capability action for sending a message.
func (o Operation) Action() string {
	return "send"
}
