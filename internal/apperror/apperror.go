// Package apperror defines the error taxonomy shared by the grading pipeline.
// Every failure that reaches a user is an *Error carrying a Kind, so the
// HTTP layer can tell "the model was unreachable" apart from "the model
// answered with garbage".
package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindConfiguration    Kind = "configuration"
	KindInsufficientData Kind = "insufficient_data"
	KindValidation       Kind = "validation"
	KindExternalCall     Kind = "external_call"
	KindResponseParse    Kind = "response_parse"
	KindSinkWrite        Kind = "sink_write"
	KindSessionClosed    Kind = "session_closed"
	KindNotFound         Kind = "not_found"
	KindCapacity         Kind = "capacity"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrConfiguration    = &Error{Kind: KindConfiguration}
	ErrInsufficientData = &Error{Kind: KindInsufficientData}
	ErrValidation       = &Error{Kind: KindValidation}
	ErrExternalCall     = &Error{Kind: KindExternalCall}
	ErrResponseParse    = &Error{Kind: KindResponseParse}
	ErrSinkWrite        = &Error{Kind: KindSinkWrite}
	ErrSessionClosed    = &Error{Kind: KindSessionClosed}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrCapacity         = &Error{Kind: KindCapacity}
)

// Error is a classified failure. Fields is only populated for validation
// errors and maps a request field name to a human-readable message.
type Error struct {
	Kind    Kind
	Reason  string
	Fields  map[string]string
	Wrapped error
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Reason == "" && t.Wrapped == nil && t.Kind == e.Kind
}

func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

func Wrap(kind Kind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Wrapped: err}
}

// Validation builds a validation error from a field → message map.
func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Reason: "submission is incomplete", Fields: fields}
}

// KindOf returns the kind of the first *Error in err's chain, or "" when
// err is nil or unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
