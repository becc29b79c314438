package domain

import (
	"fmt"
	"strings"
	"time"
)

// APIError represents a standardized error response
type APIError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrInvalidInput    = "INVALID_INPUT"
	ErrValidation      = "VALIDATION_ERROR"
	ErrReferenceLoad   = "REFERENCE_LOAD_ERROR"
	ErrUnknownCodeSet  = "UNKNOWN_CODE_SET"
	ErrEvaluation      = "EVALUATION_FAILURE"
	ErrNotFoundCode    = "NOT_FOUND"
	ErrDatabaseError   = "DATABASE_ERROR"
	ErrRateLimit       = "RATE_LIMIT_EXCEEDED"
	ErrInternalServer  = "INTERNAL_SERVER_ERROR"
	ErrServiceNotReady = "SERVICE_NOT_READY"
)

// NewAPIError creates a new APIError with timestamp
func NewAPIError(code, message, details, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// FieldProblem is one invalid field of an input record
type FieldProblem struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ValidationError represents a malformed or inconsistent input record
type ValidationError struct {
	Field    string         `json:"field"`
	Message  string         `json:"message"`
	Value    interface{}    `json:"value"`
	Problems []FieldProblem `json:"problems,omitempty"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Problems) > 1 {
		parts := make([]string, 0, len(e.Problems))
		for _, p := range e.Problems {
			parts = append(parts, fmt.Sprintf("%s: %s", p.Field, p.Message))
		}
		return fmt.Sprintf("validation failed: %s", strings.Join(parts, "; "))
	}
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:    field,
		Message:  message,
		Value:    value,
		Problems: []FieldProblem{{Field: field, Message: message, Value: value}},
	}
}

// ValidationProblems accumulates field problems into one ValidationError
type ValidationProblems struct {
	problems []FieldProblem
}

// Add records a field problem
func (p *ValidationProblems) Add(field, message string, value interface{}) {
	p.problems = append(p.problems, FieldProblem{Field: field, Message: message, Value: value})
}

// Err returns nil when no problems were recorded
func (p *ValidationProblems) Err() error {
	if len(p.problems) == 0 {
		return nil
	}
	first := p.problems[0]
	return &ValidationError{
		Field:    first.Field,
		Message:  first.Message,
		Value:    first.Value,
		Problems: p.problems,
	}
}

// ReferenceLoadError means reference data was malformed or at the wrong version.
// Evaluation cannot proceed.
type ReferenceLoadError struct {
	Source  string
	Message string
	Err     error
}

func (e *ReferenceLoadError) Error() string {
	msg := fmt.Sprintf("reference load failed (%s): %s", e.Source, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ReferenceLoadError) Unwrap() error {
	return e.Err
}

// NewReferenceLoadError creates a new ReferenceLoadError
func NewReferenceLoadError(source, message string, err error) *ReferenceLoadError {
	return &ReferenceLoadError{Source: source, Message: message, Err: err}
}

// UnknownCodeSetError means a rule asked for a code set the loaded version does not define
type UnknownCodeSetError struct {
	Indicator IndicatorID `json:"indicator,omitempty"`
	Set       string      `json:"set"`
	Version   string      `json:"version"`
}

func (e *UnknownCodeSetError) Error() string {
	if e.Indicator != "" {
		return fmt.Sprintf("%s: unknown code set %q in reference version %s", e.Indicator, e.Set, e.Version)
	}
	return fmt.Sprintf("unknown code set %q in reference version %s", e.Set, e.Version)
}

// EvaluationFailure wraps any other failure of one (encounter, indicator) pair
type EvaluationFailure struct {
	EncounterID string
	Indicator   IndicatorID
	Err         error
}

func (e *EvaluationFailure) Error() string {
	if e.Indicator == "" {
		return fmt.Sprintf("evaluation of encounter %s failed: %v", e.EncounterID, e.Err)
	}
	return fmt.Sprintf("evaluation of encounter %s for %s failed: %v", e.EncounterID, e.Indicator, e.Err)
}

func (e *EvaluationFailure) Unwrap() error {
	return e.Err
}
