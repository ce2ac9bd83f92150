package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents standardized error codes
type ErrorCode string

const (
	// Authentication errors
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"

	// Validation errors
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"

	// Review flow errors
	ErrCodeFetchFailed        ErrorCode = "FETCH_FAILED"
	ErrCodePersistenceFailed  ErrorCode = "PERSISTENCE_FAILED"
	ErrCodeNoChanges          ErrorCode = "NO_CHANGES"
	ErrCodeNotAuthenticated   ErrorCode = "NOT_AUTHENTICATED"
	ErrCodeIdentityResolution ErrorCode = "IDENTITY_RESOLUTION_FAILED"

	// Resource errors
	ErrCodeUserNotFound        ErrorCode = "USER_NOT_FOUND"
	ErrCodeTransactionNotFound ErrorCode = "TRANSACTION_NOT_FOUND"
	ErrCodeDuplicateEntry      ErrorCode = "DUPLICATE_ENTRY"

	// System errors
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeRateLimit          ErrorCode = "RATE_LIMIT_EXCEEDED"
)

// ServiceError represents a standardized error
type ServiceError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
	cause      error
}

func (e *ServiceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is/As
func (e *ServiceError) Unwrap() error {
	return e.cause
}

// New creates a new ServiceError
func New(code ErrorCode, message string) *ServiceError {
	return &ServiceError{
		Code:       code,
		Message:    message,
		StatusCode: getHTTPStatusCode(code),
		Details:    make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a ServiceError
func Wrap(err error, code ErrorCode, message string) *ServiceError {
	return &ServiceError{
		Code:       code,
		Message:    message,
		StatusCode: getHTTPStatusCode(code),
		cause:      err,
	}
}

// AddDetail adds a detail to the error
func (e *ServiceError) AddDetail(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// getHTTPStatusCode maps error codes to HTTP status codes
func getHTTPStatusCode(code ErrorCode) int {
	switch code {
	case ErrCodeUnauthorized, ErrCodeInvalidToken, ErrCodeNotAuthenticated:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeValidation, ErrCodeInvalidInput, ErrCodeMissingField, ErrCodeNoChanges:
		return http.StatusBadRequest
	case ErrCodeUserNotFound, ErrCodeTransactionNotFound:
		return http.StatusNotFound
	case ErrCodeDuplicateEntry:
		return http.StatusConflict
	case ErrCodeRateLimit:
		return http.StatusTooManyRequests
	case ErrCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeFetchFailed, ErrCodePersistenceFailed, ErrCodeIdentityResolution:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// FetchFailed marks a query or network failure. Recoverable: the caller
// can retry via an explicit refresh.
func FetchFailed(err error) *ServiceError {
	return Wrap(err, ErrCodeFetchFailed, "failed to fetch transactions")
}

// PersistenceFailed marks a write failure during a review save. The edit
// buffer is preserved so the save can be retried.
func PersistenceFailed(err error, message string) *ServiceError {
	return Wrap(err, ErrCodePersistenceFailed, message)
}

// NoChanges marks a save attempted without a pending edit.
func NoChanges(transactionID string) *ServiceError {
	return New(ErrCodeNoChanges, "no pending changes for transaction").
		AddDetail("transaction_id", transactionID)
}

// NotAuthenticated marks a save attempted without a resolvable reviewer.
func NotAuthenticated(message string) *ServiceError {
	return New(ErrCodeNotAuthenticated, message)
}

// IdentityResolution marks a failure to look up or create the reviewer row.
// All saves are blocked until it clears.
func IdentityResolution(err error) *ServiceError {
	return Wrap(err, ErrCodeIdentityResolution, "failed to resolve reviewer identity")
}

func Unauthorized(message string) *ServiceError {
	return New(ErrCodeUnauthorized, message)
}

func ValidationError(message string) *ServiceError {
	return New(ErrCodeValidation, message)
}

func NotFound(resource string) *ServiceError {
	code := ErrCodeUserNotFound
	if resource == "transaction" {
		code = ErrCodeTransactionNotFound
	}
	return New(code, fmt.Sprintf("%s not found", resource))
}

func Internal(message string) *ServiceError {
	return New(ErrCodeInternal, message)
}

// CodeOf returns the ErrorCode of err, or ErrCodeInternal for plain errors.
func CodeOf(err error) ErrorCode {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
