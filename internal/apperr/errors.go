// Package apperr holds the failure types surfaced by the API and translates
// them into the uniform error envelope.
package apperr

import (
	"fmt"
	"net/http"
	"strings"
)

// Error is a declared failure that carries its own HTTP status, such as a
// missing resource or a rejected credential.
type Error struct {
	Status  int
	Message string
	// Err is an optional cause, kept for logging only.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error with the given status and message.
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

// Conflict reports a duplicate unique field. It uses 400, the status
// clients of this API already handle for duplicate registrations.
func Conflict(message string) *Error {
	return New(http.StatusBadRequest, message)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

// Location names the part of the request a field belongs to.
type Location string

const (
	LocBody  Location = "body"
	LocQuery Location = "query"
	LocPath  Location = "path"
)

// Issue is a single field-level validation failure. Loc starts with the
// request location followed by the field path, e.g. ["body", "title"].
type Issue struct {
	Loc     []string
	Message string
}

// Field returns the field path of the issue: the location segment is
// dropped and the rest joined with dots. When nothing remains the location
// itself is returned.
func (i Issue) Field() string {
	if len(i.Loc) == 0 {
		return ""
	}
	if len(i.Loc) == 1 {
		return i.Loc[0]
	}
	return strings.Join(i.Loc[1:], ".")
}

// ValidationError aggregates field-level failures.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Field()+": "+issue.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends an issue at loc followed by path.
func (e *ValidationError) Add(loc Location, message string, path ...string) {
	segments := append([]string{string(loc)}, path...)
	e.Issues = append(e.Issues, Issue{Loc: segments, Message: message})
}

// Details groups messages by field path, preserving their order.
func (e *ValidationError) Details() map[string][]string {
	details := make(map[string][]string, len(e.Issues))
	for _, issue := range e.Issues {
		field := issue.Field()
		details[field] = append(details[field], issue.Message)
	}
	return details
}

// OrNil returns nil when no issues were collected, so callers can
// `return verr.OrNil()` without producing a typed-nil error.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Issues) == 0 {
		return nil
	}
	return e
}

// Invalid builds a ValidationError with a single issue.
func Invalid(loc Location, message string, path ...string) *ValidationError {
	v := &ValidationError{}
	v.Add(loc, message, path...)
	return v
}
