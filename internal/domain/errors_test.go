package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestAPIError(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		message   string
		details   string
		requestID string
	}{
		{
			name:      "Validation error",
			code:      ErrValidation,
			message:   "Encounter failed validation",
			details:   "principal diagnosis is required",
			requestID: "req-123",
		},
		{
			name:      "Reference error",
			code:      ErrReferenceLoad,
			message:   "Reference bundle rejected",
			details:   "unsupported version 2019",
			requestID: "req-456",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAPIError(tt.code, tt.message, tt.details, tt.requestID)

			if err.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, err.Code)
			}
			if err.Details != tt.details {
				t.Errorf("Expected details %s, got %s", tt.details, err.Details)
			}
			if err.RequestID != tt.requestID {
				t.Errorf("Expected requestID %s, got %s", tt.requestID, err.RequestID)
			}
			if time.Since(err.Timestamp) > time.Minute {
				t.Errorf("Timestamp should be recent, got %v", err.Timestamp)
			}

			expectedError := tt.code + ": " + tt.message
			if err.Error() != expectedError {
				t.Errorf("Expected error string %s, got %s", expectedError, err.Error())
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		message string
		value   interface{}
	}{
		{
			name:    "String validation error",
			field:   "SEX",
			message: "sex must be one of 1/M or 2/F",
			value:   "X",
		},
		{
			name:    "Integer validation error",
			field:   "Proc1_Day",
			message: "day offset must be non-negative",
			value:   -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message, tt.value)

			if err.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, err.Field)
			}
			if err.Value != tt.value {
				t.Errorf("Expected value %v, got %v", tt.value, err.Value)
			}

			expectedError := "validation error for field '" + tt.field + "': " + tt.message
			if err.Error() != expectedError {
				t.Errorf("Expected error string %s, got %s", expectedError, err.Error())
			}
		})
	}
}

func TestValidationProblems(t *testing.T) {
	var problems ValidationProblems
	if problems.Err() != nil {
		t.Fatal("Expected nil error without problems")
	}

	problems.Add("Pdx", "principal diagnosis is required", "")
	problems.Add("AGE", "age must be an integer", "abc")

	err := problems.Err()
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Expected *ValidationError, got %T", err)
	}
	if vErr.Field != "Pdx" {
		t.Errorf("Expected first field Pdx, got %s", vErr.Field)
	}
	if len(vErr.Problems) != 2 {
		t.Errorf("Expected 2 problems, got %d", len(vErr.Problems))
	}
	if !strings.Contains(err.Error(), "AGE: age must be an integer") {
		t.Errorf("Expected aggregated message, got %s", err.Error())
	}
}

func TestReferenceErrors(t *testing.T) {
	cause := fmt.Errorf("yaml: line 3: did not find expected key")
	loadErr := NewReferenceLoadError("bundle.yaml", "malformed bundle", cause)

	if !errors.Is(loadErr, cause) {
		t.Error("ReferenceLoadError should unwrap to its cause")
	}
	if !strings.Contains(loadErr.Error(), "bundle.yaml") {
		t.Errorf("Expected source in message, got %s", loadErr.Error())
	}

	unknown := &UnknownCodeSetError{Indicator: PSI_11, Set: "ACURF2D", Version: "2024"}
	wrapped := &EvaluationFailure{EncounterID: "E1", Indicator: PSI_11, Err: unknown}

	var target *UnknownCodeSetError
	if !errors.As(wrapped, &target) {
		t.Fatal("EvaluationFailure should unwrap to UnknownCodeSetError")
	}
	if target.Set != "ACURF2D" {
		t.Errorf("Expected set ACURF2D, got %s", target.Set)
	}
	if !strings.HasPrefix(unknown.Error(), "PSI-11:") {
		t.Errorf("Expected indicator prefix, got %s", unknown.Error())
	}
}
