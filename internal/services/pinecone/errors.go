// File: internal/services/pinecone/errors.go
package pinecone

import "fmt"

type ErrorType string

const (
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeConnection ErrorType = "CONNECTION"
	ErrTypeQuery      ErrorType = "QUERY"
)

type IndexError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
}

func (e *IndexError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("index %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("index %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *IndexError) Unwrap() error { return e.Cause }

func NewConfigError(msg string) *IndexError {
	return &IndexError{Type: ErrTypeConfig, Operation: "config", Message: msg}
}

func NewConnectionError(operation, msg string, cause error) *IndexError {
	return &IndexError{Type: ErrTypeConnection, Operation: operation, Message: msg, Cause: cause}
}

func NewQueryError(operation, msg string, cause error) *IndexError {
	return &IndexError{Type: ErrTypeQuery, Operation: operation, Message: msg, Cause: cause}
}
