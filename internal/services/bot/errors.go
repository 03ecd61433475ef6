// File: internal/services/bot/errors.go
package bot

import "fmt"

type ErrorType string

const (
	ErrorTypeConfig     ErrorType = "CONFIG"
	ErrorTypeConnection ErrorType = "CONNECTION"
	ErrorTypeAPI        ErrorType = "API"
)

type BotError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
}

func (e *BotError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("bot %s error in %s: %s (cause: %v)", e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("bot %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *BotError) Unwrap() error {
	return e.Cause
}

func NewConfigError(operation, message string, cause error) *BotError {
	return &BotError{Type: ErrorTypeConfig, Operation: operation, Message: message, Cause: cause}
}

func NewConnectionError(operation, message string, cause error) *BotError {
	return &BotError{Type: ErrorTypeConnection, Operation: operation, Message: message, Cause: cause}
}

func NewAPIError(operation, message string, cause error) *BotError {
	return &BotError{Type: ErrorTypeAPI, Operation: operation, Message: message, Cause: cause}
}
