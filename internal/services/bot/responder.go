// File: internal/services/bot/responder.go
package bot

import "context"

// Request carries everything a responder may need to compose a reply.
type Request struct {
	ThreadID string
	Content  string
	UserID   string
	Language string
}

// Responder produces the assistant's reply text for an incoming message.
type Responder interface {
	Reply(ctx context.Context, req Request) (string, error)
}

// Logger matches the application logger without importing it.
type Logger interface {
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	Debug(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
}
