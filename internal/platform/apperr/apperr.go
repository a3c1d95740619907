// Package apperr carries coded domain errors from services to the HTTP layer.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/lib/pq"
)

// Code identifies a class of failure that callers can branch on.
type Code string

const (
	CodeValidation            Code = "VALIDATION_ERROR"
	CodeInvalidProduct        Code = "INVALID_PRODUCT"
	CodeVendorBlocked         Code = "VENDOR_BLOCKED"
	CodeMaxBookingsReached    Code = "MAX_BOOKINGS_REACHED"
	CodeInsufficientInventory Code = "INSUFFICIENT_INVENTORY"
	CodeAlreadyProcessed      Code = "ALREADY_PROCESSED"
	CodeOfferExpired          Code = "OFFER_EXPIRED"
	CodeNotFound              Code = "NOT_FOUND"
	CodeUnauthorized          Code = "UNAUTHORIZED"
	CodeForbidden             Code = "FORBIDDEN"
	CodeVendorNotApproved     Code = "VENDOR_NOT_APPROVED"
	CodeRetryable             Code = "RETRYABLE"
	CodeInternal              Code = "INTERNAL"
)

// Error is a domain failure with a stable code and optional structured details.
type Error struct {
	Code    Code
	Message string
	Details interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return New(CodeValidation, format, args...)
}

func NotFound(what string) *Error {
	return New(CodeNotFound, "%s not found", what)
}

func Forbidden(format string, args ...interface{}) *Error {
	return New(CodeForbidden, format, args...)
}

func Unauthorized(format string, args ...interface{}) *Error {
	return New(CodeUnauthorized, format, args...)
}

func AlreadyProcessed(format string, args ...interface{}) *Error {
	return New(CodeAlreadyProcessed, format, args...)
}

// WithDetails attaches a payload rendered next to the message, e.g. a shortage list.
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// Postgres SQLSTATEs that mean "try the whole transaction again".
var retryableStates = map[pq.ErrorCode]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
	"57014": true, // query_canceled (statement/lock timeout)
}

// As extracts the coded error from err. Transient storage failures become
// CodeRetryable; anything else unknown is CodeInternal.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && retryableStates[pqErr.Code] {
		return &Error{Code: CodeRetryable, Message: "concurrent update, please retry", Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Code: CodeRetryable, Message: "operation timed out, please retry", Err: err}
	}
	return &Error{Code: CodeInternal, Message: "internal error", Err: err}
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}

// HTTPStatus maps a code to its response status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeInvalidProduct, CodeVendorBlocked, CodeMaxBookingsReached,
		CodeInsufficientInventory, CodeAlreadyProcessed, CodeOfferExpired:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodeVendorNotApproved:
		return http.StatusForbidden
	case CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
