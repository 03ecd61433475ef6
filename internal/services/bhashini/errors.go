// File: internal/services/bhashini/errors.go
package bhashini

import "fmt"

type ErrorType string

const (
	ErrorTypeConfig     ErrorType = "CONFIG"
	ErrorTypeConnection ErrorType = "CONNECTION"
	ErrorTypeAPI        ErrorType = "API"
	ErrorTypeDecode     ErrorType = "DECODE"
)

// BridgeError wraps failures from the language service so callers can
// tell a bad deployment (config) apart from a transient outage.
type BridgeError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
}

func (e *BridgeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("bhashini %s error in %s: %s (cause: %v)", e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("bhashini %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *BridgeError) Unwrap() error {
	return e.Cause
}

func NewConfigError(operation, message string, cause error) *BridgeError {
	return &BridgeError{Type: ErrorTypeConfig, Operation: operation, Message: message, Cause: cause}
}

func NewConnectionError(operation, message string, cause error) *BridgeError {
	return &BridgeError{Type: ErrorTypeConnection, Operation: operation, Message: message, Cause: cause}
}

func NewAPIError(operation, message string, cause error) *BridgeError {
	return &BridgeError{Type: ErrorTypeAPI, Operation: operation, Message: message, Cause: cause}
}

func NewDecodeError(operation, message string, cause error) *BridgeError {
	return &BridgeError{Type: ErrorTypeDecode, Operation: operation, Message: message, Cause: cause}
}
