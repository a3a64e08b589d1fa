// Package errors defines the structured error taxonomy for the sfauth service.
// Every failure path carries a stable error code from pkg/constants plus a
// human-readable message; strategies convert these into failed LoginResults
// instead of letting them cross the orchestrator boundary.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/turtacn/sfauth/pkg/constants"
)

// Kind classifies a failure for handling and reporting purposes.
type Kind string

const (
	// KindValidation marks missing or malformed input for the chosen strategy/grant.
	KindValidation Kind = "validation"

	// KindConfiguration marks unresolvable environment or client configuration.
	KindConfiguration Kind = "configuration"

	// KindProtocol marks a remote SOAP fault or non-2xx OAuth/identity response.
	KindProtocol Kind = "protocol"

	// KindState marks an invalid or expired CSRF/PKCE state.
	KindState Kind = "state"

	// KindSystem marks transport failures and anything otherwise uncaught.
	KindSystem Kind = "system"
)

// AuthError is the structured error used throughout the service.
type AuthError struct {
	kind    Kind
	code    constants.ErrorCode
	message string
	cause   error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

// Kind returns the failure classification.
func (e *AuthError) Kind() Kind { return e.kind }

// Code returns the stable machine-readable error code.
func (e *AuthError) Code() constants.ErrorCode { return e.code }

// Message returns the human-readable message without the code prefix.
func (e *AuthError) Message() string { return e.message }

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *AuthError) Unwrap() error { return e.cause }

// WithCause attaches an underlying error and returns the receiver.
func (e *AuthError) WithCause(cause error) *AuthError {
	e.cause = cause
	return e
}

// HTTPStatus maps the error kind onto an HTTP status code for the API layer.
func (e *AuthError) HTTPStatus() int {
	switch e.kind {
	case KindValidation, KindState:
		return http.StatusBadRequest
	case KindConfiguration:
		return http.StatusInternalServerError
	case KindProtocol:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ================================================================================
// Constructors
// ================================================================================

// New creates an AuthError with an explicit kind, code, and message.
func New(kind Kind, code constants.ErrorCode, format string, args ...interface{}) *AuthError {
	return &AuthError{
		kind:    kind,
		code:    code,
		message: fmt.Sprintf(format, args...),
	}
}

// Validation creates a validation-kind error.
func Validation(code constants.ErrorCode, format string, args ...interface{}) *AuthError {
	return New(KindValidation, code, format, args...)
}

// Configuration creates a configuration-kind error.
func Configuration(code constants.ErrorCode, format string, args ...interface{}) *AuthError {
	return New(KindConfiguration, code, format, args...)
}

// Protocol creates a protocol-kind error.
func Protocol(code constants.ErrorCode, format string, args ...interface{}) *AuthError {
	return New(KindProtocol, code, format, args...)
}

// State creates a state-kind error.
func State(code constants.ErrorCode, format string, args ...interface{}) *AuthError {
	return New(KindState, code, format, args...)
}

// System creates a system-kind error.
func System(format string, args ...interface{}) *AuthError {
	return New(KindSystem, constants.ErrCodeSystemError, format, args...)
}

// Wrap converts an arbitrary error into a system AuthError, passing AuthErrors
// through unchanged.
func Wrap(err error) *AuthError {
	if err == nil {
		return nil
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae
	}
	return System("%v", err).WithCause(err)
}

// As attempts to extract an AuthError from an error chain.
func As(err error) (*AuthError, bool) {
	var ae *AuthError
	ok := errors.As(err, &ae)
	return ae, ok
}

// CodeOf returns the stable code of an error, or SYSTEM_ERROR for plain errors.
func CodeOf(err error) constants.ErrorCode {
	if ae, ok := As(err); ok {
		return ae.Code()
	}
	return constants.ErrCodeSystemError
}
