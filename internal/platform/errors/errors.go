// Package errors carries coded errors from storage and domain code up to the HTTP envelope
package errors

// import as perr

import (
	stderrs "errors"
	"fmt"
	"net/http"
)

// ErrorCode is the machine facing error class, numbered for the wire
type ErrorCode uint16

// append only, the numbers are part of the response envelope
const (
	ErrorCodeUnknown ErrorCode = iota
	ErrorCodePanic
	ErrorCodeUnavailable
	ErrorCodeTooManyRequests
	ErrorCodeConflict
	ErrorCodeUnauthorized
	ErrorCodeForbidden
	ErrorCodeInvalidArgument
	ErrorCodeValidation
	ErrorCodeJSON
	ErrorCodeNotFound
	ErrorCodeDuplicateKey
	ErrorCodeDB
)

var statusByCode = map[ErrorCode]int{
	ErrorCodeUnavailable:     http.StatusServiceUnavailable,
	ErrorCodeTooManyRequests: http.StatusTooManyRequests,
	ErrorCodeConflict:        http.StatusConflict,
	ErrorCodeDuplicateKey:    http.StatusConflict,
	ErrorCodeUnauthorized:    http.StatusUnauthorized,
	ErrorCodeForbidden:       http.StatusForbidden,
	ErrorCodeInvalidArgument: http.StatusUnprocessableEntity,
	ErrorCodeValidation:      http.StatusBadRequest,
	ErrorCodeJSON:            http.StatusBadRequest,
	ErrorCodeNotFound:        http.StatusNotFound,
}

// HTTPStatusCode maps a code to its response status, anything unmapped is a 500
func HTTPStatusCode(c ErrorCode) int {
	if s, ok := statusByCode[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// ErrNotFound is returned by lookups that matched nothing
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// Error is a coded error with an optional offending field and wrapped cause
type Error struct {
	code  ErrorCode
	msg   string
	field string
	cause error
}

// Wire is the error part of the response envelope
type Wire struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error { return e.cause }

// Code returns the error class
func (e *Error) Code() ErrorCode { return e.code }

// Field names the input that caused the error, if any
func (e *Error) Field() string { return e.field }

// New returns a coded error
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Wrap returns a coded error around cause, the message shown to clients is msg alone
func Wrap(cause error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, cause: cause}
}

// As finds the first *Error in the chain
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf is the code of err, Unknown for foreign errors
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err carries code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// HTTPStatus is the response status for err
func HTTPStatus(err error) int { return HTTPStatusCode(CodeOf(err)) }

// WireFrom renders err for the envelope, a nil err is the zero Wire
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	if e, ok := As(err); ok {
		return Wire{Code: e.code, Message: e.msg, Field: e.field}
	}
	return Wire{Code: ErrorCodeUnknown, Message: err.Error()}
}

// WithField returns a copy of err naming field, foreign errors pass through unchanged
func WithField(err error, field string) error {
	e, ok := As(err)
	if !ok {
		return err
	}
	c := *e
	c.field = field
	return &c
}

// InvalidArgf is a 422 for input that parsed but makes no sense
func InvalidArgf(format string, a ...any) error {
	return New(ErrorCodeInvalidArgument, fmt.Sprintf(format, a...))
}

// NotFoundf is a 404
func NotFoundf(format string, a ...any) error {
	return New(ErrorCodeNotFound, fmt.Sprintf(format, a...))
}

// Unauthorizedf is a 401
func Unauthorizedf(format string, a ...any) error {
	return New(ErrorCodeUnauthorized, fmt.Sprintf(format, a...))
}

// Unavailablef marks a dependency outage the caller may retry
func Unavailablef(format string, a ...any) error {
	return New(ErrorCodeUnavailable, fmt.Sprintf(format, a...))
}

// DBf is a storage failure with no driver error to wrap
func DBf(format string, a ...any) error { return New(ErrorCodeDB, fmt.Sprintf(format, a...)) }
