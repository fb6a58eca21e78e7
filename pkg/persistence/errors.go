// Package persistence provides standardized error types for storage operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrSessionNotFound indicates a fix session was not found by the given identifier.
	ErrSessionNotFound = errors.New("session not found")

	// ErrBackupNotFound indicates a backup was not found by the given key.
	ErrBackupNotFound = errors.New("backup not found")
)

// SessionError wraps session-related storage errors with additional context.
type SessionError struct {
	Op        string // Operation being performed (e.g., "SaveSession", "SessionByID")
	SessionID string // Session ID if applicable
	Err       error  // Underlying error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("%s operation failed for session %s: %v", e.Op, e.SessionID, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for session errors.
func (e *SessionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewSessionError creates a new session error with context.
func NewSessionError(op, sessionID string, err error) *SessionError {
	return &SessionError{
		Op:        op,
		SessionID: sessionID,
		Err:       err,
	}
}

// BackupError wraps backup-related storage errors with additional context.
type BackupError struct {
	Op  string // Operation being performed
	Key string // Backup key
	Err error  // Underlying error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("%s operation failed for backup %s: %v", e.Op, e.Key, e.Err)
}

func (e *BackupError) Unwrap() error {
	return e.Err
}

func (e *BackupError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewBackupError creates a new backup error with context.
func NewBackupError(op, key string, err error) *BackupError {
	return &BackupError{
		Op:  op,
		Key: key,
		Err: err,
	}
}

// IsSessionNotFound checks if an error indicates a session was not found.
func IsSessionNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}

// IsBackupNotFound checks if an error indicates a backup was not found.
func IsBackupNotFound(err error) bool {
	return errors.Is(err, ErrBackupNotFound)
}
