// Package etlerr defines the error kinds a sync run can fail with and
// how each kind maps onto a process exit code.
package etlerr

import (
	"errors"
	"fmt"
)

// Kind enumerates the failure categories of a run.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindConnection    Kind = "connection"
	KindSchema        Kind = "schema"
	KindQuery         Kind = "query"
	KindWrite         Kind = "write"
	KindInternal      Kind = "internal"
)

// ErrMalformedResult is returned when a query yields an unexpected shape.
var ErrMalformedResult = errors.New("malformed result")

// Error carries the kind of failure together with its cause.
type Error struct {
	kind    Kind
	message string
	details map[string]any
	cause   error
}

// Option mutates an Error during construction.
type Option func(*Error)

// WithCause attaches an underlying error.
func WithCause(err error) Option {
	return func(e *Error) {
		e.cause = err
	}
}

// WithDetail adds a single named detail value.
func WithDetail(key string, value any) Option {
	return func(e *Error) {
		if e.details == nil {
			e.details = make(map[string]any)
		}
		e.details[key] = value
	}
}

// New constructs an Error of the given kind.
func New(kind Kind, message string, opts ...Option) *Error {
	if message == "" {
		message = string(kind) + " error"
	}
	e := &Error{kind: kind, message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap exposes the cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Kind returns the failure category.
func (e *Error) Kind() Kind {
	if e == nil {
		return KindInternal
	}
	return e.kind
}

// Message returns the message without the cause.
func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// Details returns optional metadata about the failure.
func (e *Error) Details() map[string]any {
	if e == nil {
		return nil
	}
	return e.details
}

// Configuration constructs a configuration error.
func Configuration(message string, opts ...Option) *Error {
	return New(KindConfiguration, message, opts...)
}

// Connection constructs a connection error.
func Connection(message string, opts ...Option) *Error {
	return New(KindConnection, message, opts...)
}

// Schema constructs a schema error.
func Schema(message string, opts ...Option) *Error {
	return New(KindSchema, message, opts...)
}

// Query constructs a query error.
func Query(message string, opts ...Option) *Error {
	return New(KindQuery, message, opts...)
}

// Write constructs a write error.
func Write(message string, opts ...Option) *Error {
	return New(KindWrite, message, opts...)
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind()
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ExitCode maps err onto the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case KindConfiguration:
		return 2
	case KindConnection:
		return 3
	case KindSchema:
		return 4
	case KindQuery:
		return 5
	case KindWrite:
		return 6
	default:
		return 1
	}
}
