// Package apology carries user-facing rejections: a message plus the HTTP
// status the caller should answer with.
package apology

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (e *Error) Error() string { return e.Message }

func New(status int, format string, args ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Status: status}
}

func BadRequest(format string, args ...interface{}) *Error {
	return New(http.StatusBadRequest, format, args...)
}

func Unauthorized(format string, args ...interface{}) *Error {
	return New(http.StatusUnauthorized, format, args...)
}

func Forbidden(format string, args ...interface{}) *Error {
	return New(http.StatusForbidden, format, args...)
}

func Unavailable(format string, args ...interface{}) *Error {
	return New(http.StatusServiceUnavailable, format, args...)
}

// Internal is the generic answer for failures whose cause must not leak.
func Internal() *Error {
	return &Error{Message: "internal error", Status: http.StatusInternalServerError}
}

// From extracts the apology wrapped in err. Any other error becomes Internal
// and ok is false, so the caller knows to log the cause.
func From(err error) (a *Error, ok bool) {
	if errors.As(err, &a) {
		return a, true
	}
	return Internal(), false
}
