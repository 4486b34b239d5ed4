package status

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Error is a classified failure. It carries the status code and, when the
// failure came from an HTTP response, the response status.
type Error struct {
	// Code is the fine-grained classification.
	Code Code
	// HTTPStatus is the response status, or 0 when no response was received.
	HTTPStatus int
	msg        string
	cause      error
}

// Error implements error.
func (e *Error) Error() string {
	switch {
	case e.cause == nil:
		return e.msg
	case e.msg == "":
		return e.cause.Error()
	default:
		return e.msg + ": " + e.cause.Error()
	}
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Message returns the message without the cause chain.
func (e *Error) Message() string {
	return e.msg
}

// New returns a classified error with a stack trace.
func New(code Code, msg string) error {
	return errors.WithStackDepth(&Error{Code: code, msg: msg}, 1)
}

// Newf is New with formatting.
func Newf(code Code, format string, args ...any) error {
	return errors.WithStackDepth(&Error{Code: code, msg: fmt.Sprintf(format, args...)}, 1)
}

// NewHTTP returns a classified error for a received HTTP response.
func NewHTTP(code Code, httpStatus int, msg string) error {
	return errors.WithStackDepth(&Error{Code: code, HTTPStatus: httpStatus, msg: msg}, 1)
}

// Wrap classifies err under code. A nil err yields nil.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return errors.WithStackDepth(&Error{Code: code, msg: msg, cause: err}, 1)
}

// Wrapf is Wrap with formatting.
func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errors.WithStackDepth(&Error{Code: code, msg: fmt.Sprintf(format, args...), cause: err}, 1)
}

// CodeOf returns the outermost status code in the error chain.
func CodeOf(err error) (Code, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Code, true
	}
	return "", false
}

// HTTPStatusOf returns the first non-zero HTTP status in the error chain.
func HTTPStatusOf(err error) int {
	for err != nil {
		var se *Error
		if !errors.As(err, &se) {
			return 0
		}
		if se.HTTPStatus != 0 {
			return se.HTTPStatus
		}
		err = se.cause
	}
	return 0
}

// Is reports whether err carries code anywhere in its chain.
func Is(err error, code Code) bool {
	for err != nil {
		var se *Error
		if !errors.As(err, &se) {
			return false
		}
		if se.Code == code {
			return true
		}
		err = se.cause
	}
	return false
}
