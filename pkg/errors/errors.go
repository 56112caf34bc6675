// Package errors provides the unified error handling framework.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable, machine-readable error code.
type Code string

const (
	// Generic codes.
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeNotFound     Code = "NOT_FOUND"
	CodeTimeout      Code = "TIMEOUT"

	// Roster engine codes.
	CodeInvalidHorizon     Code = "INVALID_HORIZON"
	CodeInvalidService     Code = "INVALID_SERVICE"
	CodeInvalidParameters  Code = "INVALID_PARAMETERS"
	CodeNoFeasibleSolution Code = "NO_FEASIBLE_SOLUTION"
	CodeBudgetExhausted    Code = "BUDGET_EXHAUSTED"
	CodeSolutionRejected   Code = "SOLUTION_REJECTED"

	// Data codes.
	CodeDatabaseError  Code = "DATABASE_ERROR"
	CodeValidationFail Code = "VALIDATION_FAILED"
)

// AppError is the application error type carried across layers.
type AppError struct {
	Code       Code                   `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
	Cause      error                  `json:"-"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails attaches free-form details.
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause attaches the underlying cause.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithField attaches a structured field.
func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// New creates a new AppError.
func New(code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeValidationFail, CodeInvalidHorizon, CodeInvalidService, CodeInvalidParameters:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTimeout, CodeBudgetExhausted:
		return http.StatusGatewayTimeout
	case CodeNoFeasibleSolution:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the code from an error.
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetHTTPStatus extracts the HTTP status for an error.
func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// Predefined errors.
var (
	ErrNotFound           = New(CodeNotFound, "resource not found")
	ErrInvalidInput       = New(CodeInvalidInput, "invalid input")
	ErrInternal           = New(CodeInternal, "internal error")
	ErrNoFeasibleSolution = New(CodeNoFeasibleSolution, "no feasible roster found")
)

// InvalidInput creates a field-level input error.
func InvalidInput(field, reason string) *AppError {
	return New(CodeInvalidInput, fmt.Sprintf("field '%s' is invalid: %s", field, reason))
}

// NotFound creates a missing-resource error.
func NotFound(resource, id string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s '%s' not found", resource, id))
}

// InvalidHorizon creates a horizon configuration error.
func InvalidHorizon(reason string) *AppError {
	return New(CodeInvalidHorizon, fmt.Sprintf("invalid planning horizon: %s", reason))
}

// InvalidService creates a service definition error.
func InvalidService(serviceID, reason string) *AppError {
	return New(CodeInvalidService, fmt.Sprintf("service '%s' is invalid: %s", serviceID, reason))
}

// InvalidParameters creates a constraint parameter error.
func InvalidParameters(field, reason string) *AppError {
	return New(CodeInvalidParameters, fmt.Sprintf("constraint parameter '%s' is invalid: %s", field, reason))
}

// NoFeasibleSolution creates a search failure error.
func NoFeasibleSolution(reason string) *AppError {
	return New(CodeNoFeasibleSolution, reason)
}

// BudgetExhausted creates a time-budget failure error.
func BudgetExhausted(reason string) *AppError {
	return New(CodeBudgetExhausted, reason)
}

// SolutionRejected creates a post-solve audit error.
func SolutionRejected(reason string) *AppError {
	return New(CodeSolutionRejected, reason)
}
