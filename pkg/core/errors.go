package core

import (
	"errors"
	"fmt"
)

// Error is the canonical error for everything the application surfaces:
// connect failures, device failures, edit request failures, and tool
// handler failures all carry a Type so callers can branch without string
// matching.
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    string    `json:"code,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (code: %s)", e.Type, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error wrapping.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes errors.
type ErrorType string

const (
	// ErrAuth means the API credential is missing or rejected. Fatal to the
	// attempted connect or request.
	ErrAuth ErrorType = "auth_error"
	// ErrConnection is a transport-level failure. Fatal to the session; the
	// caller disconnects and may retry with a new session.
	ErrConnection ErrorType = "connection_error"
	// ErrDevice is a microphone or speaker failure. Fatal to capture.
	ErrDevice ErrorType = "device_error"
	// ErrEditRequest means a remote edit failed or returned unusable content.
	// Recoverable at the controller level.
	ErrEditRequest ErrorType = "edit_request_error"
	// ErrToolHandler means a local tool callback failed. Contained within the
	// tool-call loop and reported to the remote side, never fatal.
	ErrToolHandler ErrorType = "tool_handler_error"
)

// NewAuthError creates an auth error.
func NewAuthError(message string) *Error {
	return &Error{
		Type:    ErrAuth,
		Message: message,
	}
}

// NewConnectionError creates a connection error wrapping the transport cause.
func NewConnectionError(message string, cause error) *Error {
	return &Error{
		Type:    ErrConnection,
		Message: message,
		Cause:   cause,
	}
}

// NewDeviceError creates a device error wrapping the hardware cause.
func NewDeviceError(message string, cause error) *Error {
	return &Error{
		Type:    ErrDevice,
		Message: message,
		Cause:   cause,
	}
}

// NewEditRequestError creates an edit request error.
func NewEditRequestError(message string) *Error {
	return &Error{
		Type:    ErrEditRequest,
		Message: message,
	}
}

// NewToolHandlerError creates a tool handler error.
func NewToolHandlerError(message string) *Error {
	return &Error{
		Type:    ErrToolHandler,
		Message: message,
	}
}

// IsType reports whether err is a *core.Error of the given type.
func IsType(err error, t ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}
