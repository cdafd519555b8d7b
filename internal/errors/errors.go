package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a conflict with existing data (e.g., unique constraint violation).
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeValidation indicates invalid input data. Surfaced per field before any network call.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeAuthentication indicates the identity provider rejected the credentials.
	ErrCodeAuthentication ErrorCode = "authentication"
	// ErrCodeAttributeFetch indicates user attributes could not be loaded. Never fatal to a session.
	ErrCodeAttributeFetch ErrorCode = "attribute_fetch"
	// ErrCodeNetwork indicates the identity provider could not be reached.
	ErrCodeNetwork ErrorCode = "network"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// Default user-facing messages.
const (
	MsgAuthenticationFailed = "Failed to sign in. Please check your credentials."
	MsgSignUpFailed         = "Failed to sign up. Please try again."
	MsgConfirmFailed        = "Failed to confirm sign up. Please check your code."
	MsgGeneric              = "Something went wrong. Please try again."
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for validation errors)
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict creates a new Conflict error.
func Conflict(message string) *AppError {
	return &AppError{Code: ErrCodeConflict, Message: message}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Field: field}
}

// Authentication wraps a provider rejection. message is what the user sees.
func Authentication(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeAuthentication, Message: message, Cause: cause}
}

// AttributeFetch wraps a failed attribute lookup.
func AttributeFetch(cause error) *AppError {
	return &AppError{Code: ErrCodeAttributeFetch, Message: "failed to fetch user attributes", Cause: cause}
}

// Network wraps a transport failure talking to the identity provider.
func Network(cause error) *AppError {
	return &AppError{Code: ErrCodeNetwork, Message: "identity provider unreachable", Cause: cause}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool {
	return isCode(err, ErrCodeNotFound)
}

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool {
	return isCode(err, ErrCodeConflict)
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// IsAuthentication checks if an error is an Authentication error.
func IsAuthentication(err error) bool {
	return isCode(err, ErrCodeAuthentication)
}

// IsAttributeFetch checks if an error is an AttributeFetch error.
func IsAttributeFetch(err error) bool {
	return isCode(err, ErrCodeAttributeFetch)
}

// IsNetwork reports whether err is a Network error or an underlying transport failure.
func IsNetwork(err error) bool {
	if isCode(err, ErrCodeNetwork) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// IsTimeout checks if an error is a Timeout error.
func IsTimeout(err error) bool {
	return isCode(err, ErrCodeTimeout)
}

// IsCanceled checks if an error is a Canceled error.
func IsCanceled(err error) bool {
	return isCode(err, ErrCodeCanceled)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

// UserMessage converts err into the single message shown to the user.
// Network failures read as authentication failures; internals are never leaked.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if fallback == "" {
		fallback = MsgGeneric
	}
	if IsNetwork(err) || errors.Is(err, context.DeadlineExceeded) {
		return MsgAuthenticationFailed
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case ErrCodeValidation, ErrCodeAuthentication, ErrCodeNotFound, ErrCodeConflict:
			if appErr.Message != "" {
				return appErr.Message
			}
		}
	}
	return fallback
}
