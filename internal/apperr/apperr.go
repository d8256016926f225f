// Package apperr defines the typed errors that cross component boundaries.
// Each error carries a Kind which the HTTP layer maps to a status code.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is a stable, machine-readable error category.
type Kind string

const (
	Internal                  Kind = "internal"
	InvalidInput              Kind = "invalid_input"
	NotFound                  Kind = "not_found"
	Conflict                  Kind = "conflict"
	NoProviderFound           Kind = "no_provider_found"
	NoInterfaceFound          Kind = "no_interface_found"
	ActionResolutionFailed    Kind = "action_resolution_failed"
	ClassificationUnavailable Kind = "classification_unavailable"
	MalformedResponse         Kind = "malformed_response"
	DependencyNotResolved     Kind = "dependency_not_resolved"
	ExecutionFailed           Kind = "execution_failed"
)

// Error is a categorised error with optional structured details.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// WithDetail attaches a key/value pair and returns the same error.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// As returns the outermost *Error in err's chain.
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// Is reports whether any *Error in err's chain has the given kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		var target *Error
		if !errors.As(err, &target) {
			return false
		}
		if target.Kind == kind {
			return true
		}
		err = target.Cause
	}
	return false
}

// KindOf returns the kind of the outermost *Error, or Internal.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return Internal
}
