package apperr

import (
	"fmt"
	"net/http"
)

const (
	CodeValidation      = "ValidationError"
	CodeNotFound        = "NotFound"
	CodeUnauthenticated = "Unauthenticated"
	CodeNotAuthorized   = "NotAuthorized"
	CodeConflict        = "Conflict"
	CodeInternal        = "InternalError"
)

// Error is the transport-level error rendered by the HTTP error handler.
// Fields carries field-level messages keyed by field path.
type Error struct {
	Status int
	Code   string
	Err    error
	Fields map[string][]string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Validation(err error, fields map[string][]string) *Error {
	return &Error{Status: http.StatusUnprocessableEntity, Code: CodeValidation, Err: err, Fields: fields}
}

func NotFound(err error) *Error {
	return New(http.StatusNotFound, CodeNotFound, err)
}

func Unauthenticated(err error) *Error {
	return New(http.StatusUnauthorized, CodeUnauthenticated, err)
}

func NotAuthorized(err error) *Error {
	return New(http.StatusForbidden, CodeNotAuthorized, err)
}

func Conflict(err error) *Error {
	return New(http.StatusConflict, CodeConflict, err)
}

func Internal(err error) *Error {
	return New(http.StatusInternalServerError, CodeInternal, err)
}
