// File: internal/services/errors.go
package services

import "errors"

// Failure taxonomy shared by the session and dispatch services.
//
// ErrStoreUnavailable covers any failed read or write against the
// conversation store; callers retry on the next user action and keep showing
// the stale cache meanwhile. ErrEmptyMessage and ErrMissingMedia are
// validation failures rejected before any remote call is made.
var (
	ErrStoreUnavailable = errors.New("conversation store unavailable")
	ErrThreadNotFound   = errors.New("thread not found")
	ErrNotParticipant   = errors.New("user is not a participant of this thread")
	ErrEmptyMessage     = errors.New("message content cannot be empty")
	ErrMissingMedia     = errors.New("media reference required for this message type")
)
