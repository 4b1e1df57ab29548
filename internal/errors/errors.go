// Package errors defines stable error codes for all mend failure modes.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// CaptureNotFound indicates an unknown intent capture id
	CaptureNotFound ErrorCode = "CAPTURE_NOT_FOUND"
	// SessionNotFound indicates an unknown debug session id
	SessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	// ActionNotFound indicates an unknown healing action id
	ActionNotFound ErrorCode = "ACTION_NOT_FOUND"
	// UnknownStep indicates a healing step verb with no registered handler
	UnknownStep ErrorCode = "UNKNOWN_STEP"
	// StoreFailed indicates a durable write or read failed
	StoreFailed ErrorCode = "STORE_FAILED"
	// RoomInvalid indicates an unknown or undeclared room id
	RoomInvalid ErrorCode = "ROOM_INVALID"
	// RelationshipInvalid indicates an unsupported relationship type on an edge
	RelationshipInvalid ErrorCode = "RELATIONSHIP_INVALID"
	// ScanFailed indicates the codebase scanner could not complete
	ScanFailed ErrorCode = "SCAN_FAILED"
	// QueueFull indicates the healing queue rejected a request
	QueueFull ErrorCode = "QUEUE_FULL"
	// SessionResolved indicates an operation on an already-resolved session
	SessionResolved ErrorCode = "SESSION_RESOLVED"
	// InternalError indicates an unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Command     string `json:"command,omitempty"`
	Description string `json:"description,omitempty"`
}

// MendError represents an engine error with code, message, and suggestions
type MendError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a new MendError
func New(code ErrorCode, message string, cause error) *MendError {
	return &MendError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: errorActions[code],
	}
}

// Error implements the error interface
func (e *MendError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *MendError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *MendError) WithDetails(details interface{}) *MendError {
	e.Details = details
	return e
}

// CodeOf extracts the error code from an error chain, or InternalError
func CodeOf(err error) ErrorCode {
	var me *MendError
	if errors.As(err, &me) {
		return me.Code
	}
	return InternalError
}

// IsNotFound reports whether the error carries a not-found code
func IsNotFound(err error) bool {
	switch CodeOf(err) {
	case CaptureNotFound, SessionNotFound, ActionNotFound:
		return true
	}
	return false
}

// errorActions maps error codes to suggested fix actions
var errorActions = map[ErrorCode][]FixAction{
	RoomInvalid: {
		{
			Command:     "mend rooms",
			Description: "List rooms declared in ROOMS.toml",
		},
	},
	SessionNotFound: {
		{
			Command:     "mend sessions",
			Description: "List known debug sessions",
		},
	},
	QueueFull: {
		{
			Command:     "mend config get healing.queueSize",
			Description: "Inspect and raise the healing queue size",
		},
	},
	StoreFailed: {
		{
			Command:     "mend init",
			Description: "Verify the data directory exists and is writable",
		},
	},
}
