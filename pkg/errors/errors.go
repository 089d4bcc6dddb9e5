package errors

import (
	"errors"
	"net/http"
)

// ErrOptimisticLock the row was modified by another operation since it was read.
var ErrOptimisticLock = errors.New("record was modified by another operation, reload and retry")

// ErrConcurrentUpdate the store refused the unit of work because of contention
// on the same rows (serialization failure, deadlock, lock not available).
var ErrConcurrentUpdate = Conflict("the record is being modified by another request, retry")

// Kind machine-readable error category exposed to API clients.
type Kind string

const (
	KindValidation     Kind = "validation_error"
	KindInvalidArg     Kind = "invalid_argument"
	KindAuthentication Kind = "authentication_error"
	KindForbidden      Kind = "forbidden"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindInternal       Kind = "internal_error"
)

// Error typed business error carried from services to handlers.
type Error struct {
	Kind    Kind
	Message string
	// Fields field name → message, only set for validation errors
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match for the template an error was wrapped from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e == t || (e.Kind == t.Kind && e.Message == t.Message)
}

// ── Constructors ──

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

func InvalidArgument(message string) *Error { return New(KindInvalidArg, message) }

func Unauthenticated(message string) *Error { return New(KindAuthentication, message) }

func Forbidden(message string) *Error { return New(KindForbidden, message) }

func NotFound(message string) *Error { return New(KindNotFound, message) }

func Conflict(message string) *Error { return New(KindConflict, message) }

// Wrap attaches a cause while keeping kind and message of the template.
func Wrap(template *Error, cause error) *Error {
	return &Error{Kind: template.Kind, Message: template.Message, Fields: template.Fields, Err: cause}
}

// KindOf returns the kind of the first *Error in the chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// StatusOf maps an error to its HTTP status code.
func StatusOf(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindInvalidArg, KindConflict:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
