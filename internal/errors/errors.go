// Package errors defines the service error taxonomy shared by all layers.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies the class of a service error.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "VALIDATION_ERROR"
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeConflict           ErrorCode = "CONFLICT"
	CodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// ServiceError carries an error code, a user-facing message and the HTTP
// status the transport layer should respond with.
type ServiceError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Details    map[string]interface{}
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// WithDetails attaches a key/value pair to the error for diagnostics.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Validation reports a missing or malformed input field.
func Validation(message string) *ServiceError {
	return &ServiceError{Code: CodeValidation, Message: message, HTTPStatus: http.StatusBadRequest}
}

// Unauthorized reports a missing or invalid identity.
func Unauthorized(message string) *ServiceError {
	return &ServiceError{Code: CodeUnauthorized, Message: message, HTTPStatus: http.StatusUnauthorized}
}

// InvalidCredentials reports a failed authentication attempt. The message is
// deliberately identical for unknown usernames and wrong passwords.
func InvalidCredentials() *ServiceError {
	return &ServiceError{Code: CodeInvalidCredentials, Message: "Invalid credentials", HTTPStatus: http.StatusUnauthorized}
}

// Forbidden reports an insufficient role or a failed ownership check.
func Forbidden(message string) *ServiceError {
	return &ServiceError{Code: CodeForbidden, Message: message, HTTPStatus: http.StatusForbidden}
}

// NotFound reports an absent entity.
func NotFound(message string) *ServiceError {
	return &ServiceError{Code: CodeNotFound, Message: message, HTTPStatus: http.StatusNotFound}
}

// Conflict reports a uniqueness violation. The original platform responds
// with 400 rather than 409 for these, and clients depend on that.
func Conflict(message string) *ServiceError {
	return &ServiceError{Code: CodeConflict, Message: message, HTTPStatus: http.StatusBadRequest}
}

// Internal wraps an unexpected failure.
func Internal(message string, err error) *ServiceError {
	return &ServiceError{Code: CodeInternal, Message: message, HTTPStatus: http.StatusInternalServerError, Err: err}
}

// InvalidToken reports a token that failed parsing or verification.
func InvalidToken(err error) *ServiceError {
	return &ServiceError{Code: CodeUnauthorized, Message: "Invalid or expired token", HTTPStatus: http.StatusUnauthorized, Err: err}
}

// GetServiceError extracts a *ServiceError from an error chain, or nil.
func GetServiceError(err error) *ServiceError {
	var svcErr *ServiceError
	if stderrors.As(err, &svcErr) {
		return svcErr
	}
	return nil
}
