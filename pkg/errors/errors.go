package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies user-facing failures. Anything that is not an *AppError is
// treated as an internal failure by the HTTP boundary.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConflict
	KindForbidden
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Detail is one structured entry of an error: which field, what went wrong and,
// for list-valued inputs, the offending values.
type Detail struct {
	Field  string   `json:"field,omitempty"`
	Reason string   `json:"reason"`
	Values []string `json:"values,omitempty"`
}

// AppError is the typed error returned by services.
type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Details []Detail
}

func (e *AppError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		if d.Field != "" {
			parts = append(parts, d.Field+": "+d.Reason)
		} else {
			parts = append(parts, d.Reason)
		}
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, "; "))
}

// Is matches any *AppError of the same kind, so errors.Is(err, ErrNotFound) works
// for every not-found error regardless of message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// HasDetail reports whether a detail with the given field and reason is present.
func (e *AppError) HasDetail(field, reason string) bool {
	for _, d := range e.Details {
		if d.Field == field && d.Reason == reason {
			return true
		}
	}
	return false
}

// ── sentinels ──

var (
	ErrValidation   = &AppError{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: "validation failed"}
	ErrNotFound     = &AppError{Kind: KindNotFound, Code: "NOT_FOUND", Message: "resource not found"}
	ErrConflict     = &AppError{Kind: KindConflict, Code: "CONFLICT", Message: "resource conflict"}
	ErrForbidden    = &AppError{Kind: KindForbidden, Code: "FORBIDDEN", Message: "forbidden"}
	ErrUnauthorized = &AppError{Kind: KindUnauthorized, Code: "UNAUTHORIZED", Message: "unauthorized"}
)

// ── constructors ──

func Validation(message string, details ...Detail) *AppError {
	return &AppError{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: message, Details: details}
}

func NotFound(message string, details ...Detail) *AppError {
	return &AppError{Kind: KindNotFound, Code: "NOT_FOUND", Message: message, Details: details}
}

func Conflict(message string, details ...Detail) *AppError {
	return &AppError{Kind: KindConflict, Code: "CONFLICT", Message: message, Details: details}
}

func Forbidden(message string, details ...Detail) *AppError {
	return &AppError{Kind: KindForbidden, Code: "FORBIDDEN", Message: message, Details: details}
}

func Unauthorized(message string, details ...Detail) *AppError {
	return &AppError{Kind: KindUnauthorized, Code: "UNAUTHORIZED", Message: message, Details: details}
}

// As extracts an *AppError from a wrapped chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, or 0 for internal errors.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return 0
}
