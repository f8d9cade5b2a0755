// Package authkit implements the authentication and session lifecycle
// subsystem of the WearAgain mobile client: OAuth-based social sign-in,
// backend token exchange and refresh, and a single session state machine
// shared by the rest of the application.
package authkit

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a canonical failure kind. Every failure leaving this
// package terminates in exactly one code.
type ErrorCode string

const (
	// Authorization flow errors
	ErrCodeOAuthDenied    ErrorCode = "OAUTH_DENIED"
	ErrCodeOAuthCancelled ErrorCode = "OAUTH_CANCELLED"
	ErrCodeStateMismatch  ErrorCode = "STATE_MISMATCH"
	ErrCodeTimeout        ErrorCode = "TIMEOUT"

	// Transport and backend errors
	ErrCodeNetworkError        ErrorCode = "NETWORK_ERROR"
	ErrCodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrCodeBackendError        ErrorCode = "BACKEND_ERROR"
	ErrCodeParsingError        ErrorCode = "PARSING_ERROR"

	// Configuration errors
	ErrCodeConfigError    ErrorCode = "CONFIG_ERROR"
	ErrCodeNotImplemented ErrorCode = "NOT_IMPLEMENTED"

	// Catch-all
	ErrCodeUnknown ErrorCode = "UNKNOWN"
)

// AuthError is the only error type that crosses component boundaries.
// UI code renders it through UserMessage; everything else stays internal.
type AuthError struct {
	Code     ErrorCode      `json:"code"`
	Message  string         `json:"message"`
	Provider string         `json:"provider,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Cause    error          `json:"-"`
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Code, e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain inspection.
func (e *AuthError) Unwrap() error {
	return e.Cause
}

// WithCause attaches the underlying error and returns the receiver.
func (e *AuthError) WithCause(cause error) *AuthError {
	e.Cause = cause
	return e
}

// WithDetails attaches structured details and returns the receiver.
func (e *AuthError) WithDetails(details map[string]any) *AuthError {
	e.Details = details
	return e
}

// NewAuthError creates an AuthError for the given provider.
func NewAuthError(code ErrorCode, message, provider string) *AuthError {
	return &AuthError{
		Code:     code,
		Message:  message,
		Provider: provider,
	}
}

// AsAuthError extracts an *AuthError from err, or nil when err does not
// carry one anywhere in its chain.
func AsAuthError(err error) *AuthError {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// IsAuthErrorCode reports whether err carries an AuthError with the given code.
func IsAuthErrorCode(err error, code ErrorCode) bool {
	ae := AsAuthError(err)
	return ae != nil && ae.Code == code
}
