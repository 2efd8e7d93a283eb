// Package errors provides structured error types for techo.
package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Code represents a unique error code.
type Code string

// Error codes for techo.
const (
	// Generic resource errors
	CodeNotFound     Code = "RESOURCE_NOT_FOUND"
	CodeInvalidInput Code = "INVALID_INPUT"

	// Goal tree errors
	CodeGoalNotFound Code = "GOAL_NOT_FOUND"
	CodeGoalCycle    Code = "GOAL_CYCLE"

	// Store errors
	CodeStoreFailure Code = "STORE_FAILURE"

	// Config errors
	CodeConfigInvalid Code = "CONFIG_INVALID"
)

// Category groups error codes for HTTP status mapping.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryNotFound
	CategoryBadRequest
	CategoryConflict
	CategoryInternal
)

// codeCategories maps error codes to their categories.
var codeCategories = map[Code]Category{
	CodeNotFound:      CategoryNotFound,
	CodeInvalidInput:  CategoryBadRequest,
	CodeGoalNotFound:  CategoryNotFound,
	CodeGoalCycle:     CategoryConflict,
	CodeStoreFailure:  CategoryInternal,
	CodeConfigInvalid: CategoryBadRequest,
}

// HTTPStatus returns the HTTP status code for a category.
func (c Category) HTTPStatus() int {
	switch c {
	case CategoryNotFound:
		return 404
	case CategoryBadRequest:
		return 400
	case CategoryConflict:
		return 409
	default:
		return 500
	}
}

// TechoError is the structured error type for techo.
type TechoError struct {
	Code  Code   `json:"code"`
	What  string `json:"what"`
	Why   string `json:"why,omitempty"`
	Cause error  `json:"-"`
}

// Error implements the error interface.
func (e *TechoError) Error() string {
	var b strings.Builder
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString(": ")
		b.WriteString(e.Why)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *TechoError) Unwrap() error {
	return e.Cause
}

// Category returns the error category for HTTP status mapping.
func (e *TechoError) Category() Category {
	if cat, ok := codeCategories[e.Code]; ok {
		return cat
	}
	return CategoryUnknown
}

// HTTPStatus returns the appropriate HTTP status code for this error.
func (e *TechoError) HTTPStatus() int {
	return e.Category().HTTPStatus()
}

// MarshalJSON implements json.Marshaler.
func (e *TechoError) MarshalJSON() ([]byte, error) {
	type alias TechoError
	aux := struct {
		*alias
		CauseMsg string `json:"cause,omitempty"`
	}{
		alias: (*alias)(e),
	}
	if e.Cause != nil {
		aux.CauseMsg = e.Cause.Error()
	}
	return json.Marshal(aux)
}

// Is reports whether target is a TechoError with the same code.
func (e *TechoError) Is(target error) bool {
	t, ok := target.(*TechoError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause.
func (e *TechoError) WithCause(err error) *TechoError {
	return &TechoError{
		Code:  e.Code,
		What:  e.What,
		Why:   e.Why,
		Cause: err,
	}
}

// --- Error constructors ---

// ErrNotFound returns an error for a missing record of a flat resource.
func ErrNotFound(resource string, id int64) *TechoError {
	return &TechoError{
		Code: CodeNotFound,
		What: fmt.Sprintf("%s %d not found", resource, id),
		Why:  "No record with this ID exists",
	}
}

// ErrGoalNotFound returns an error when a goal doesn't exist.
func ErrGoalNotFound(id int64) *TechoError {
	return &TechoError{
		Code: CodeGoalNotFound,
		What: fmt.Sprintf("goal %d not found", id),
		Why:  "No goal with this ID exists",
	}
}

// ErrGoalCycle returns an error when a parent assignment would create a cycle.
func ErrGoalCycle(id, parentID int64) *TechoError {
	return &TechoError{
		Code: CodeGoalCycle,
		What: fmt.Sprintf("goal %d cannot become a child of goal %d", id, parentID),
		Why:  "The proposed parent is a descendant of the goal, which would create a cycle",
	}
}

// ErrInvalidInput returns a generic bad-request error.
func ErrInvalidInput(what string) *TechoError {
	return &TechoError{
		Code: CodeInvalidInput,
		What: what,
	}
}
