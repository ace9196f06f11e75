// Package errors provides Loom's structured error type and the registry
// of known error codes. Construction and structure errors propagate
// synchronously to the caller; binding errors are caught per node,
// logged, and never abort sibling processing.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	// CategoryConstruction covers malformed directive or template
	// configuration detected while building a component.
	CategoryConstruction Category = "construction"

	// CategoryBinding covers directive handlers failing while wiring a
	// single node. These are isolated per node.
	CategoryBinding Category = "binding"

	// CategoryStructure covers attempts to place a node where its
	// container's content model forbids it.
	CategoryStructure Category = "structure"

	// CategoryConfig covers project configuration problems.
	CategoryConfig Category = "config"

	// CategoryProtocol covers malformed live-session frames.
	CategoryProtocol Category = "protocol"
)

// Error is a structured error with a stable code, category, and
// optional remediation hint.
type Error struct {
	// Code is a unique error identifier (e.g. "L001").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer, instance-specific explanation.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Wrapped != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Wrapped)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// WithDetail attaches an instance-specific explanation.
func (e *Error) WithDetail(format string, args ...any) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Wrap attaches an underlying cause.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates an error from a registered code. Unknown codes produce a
// bare runtime-category error carrying the code, so a typo never panics.
func New(code string) *Error {
	if tpl, ok := registry[code]; ok {
		return &Error{
			Code:       code,
			Category:   tpl.Category,
			Message:    tpl.Message,
			Suggestion: tpl.Suggestion,
		}
	}
	return &Error{Code: code, Message: "unknown error"}
}

// As re-exports the standard errors.As so callers need one import.
func As(err error, target any) bool { return stderrors.As(err, target) }

// Is re-exports the standard errors.Is.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// IsCategory reports whether err is (or wraps) a structured error of the
// given category.
func IsCategory(err error, cat Category) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Category == cat
	}
	return false
}

// IsConstruction reports whether err is a construction error.
func IsConstruction(err error) bool { return IsCategory(err, CategoryConstruction) }

// IsBinding reports whether err is a binding error.
func IsBinding(err error) bool { return IsCategory(err, CategoryBinding) }

// IsStructure reports whether err is a structural insertion error.
func IsStructure(err error) bool { return IsCategory(err, CategoryStructure) }
