package domain

import (
	"errors"
	"fmt"
	"time"
)

// Error codes for different failure scenarios
const (
	ErrModelUnavailable = "MODEL_UNAVAILABLE"
	ErrInvalidInput     = "INVALID_INPUT"
	ErrInternalServer   = "INTERNAL_SERVER_ERROR"
)

// PredictionError represents a standardized error response
type PredictionError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// Error implements the error interface
func (e *PredictionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewPredictionError creates a new PredictionError with timestamp
func NewPredictionError(code, message, details, requestID string) *PredictionError {
	return &PredictionError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// ModelUnavailableError signals that the external model service could not be
// reached or initialized. It is the single hard failure of the prediction
// path; every other anomaly degrades to the rule-only estimate.
type ModelUnavailableError struct {
	Cause error
}

// Error implements the error interface
func (e *ModelUnavailableError) Error() string {
	if e.Cause == nil {
		return "model unavailable"
	}
	return fmt.Sprintf("model unavailable: %v", e.Cause)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *ModelUnavailableError) Unwrap() error {
	return e.Cause
}

// IsModelUnavailable reports whether err is, or wraps, a ModelUnavailableError.
func IsModelUnavailable(err error) bool {
	var target *ModelUnavailableError
	return errors.As(err, &target)
}
