package operations

import (
	"context"
	"errors"
	"fmt"
)

// ErrorType represents the type of operation error
type ErrorType string

const (
	ErrorTypeExecution    ErrorType = "execution"
	ErrorTypeCancellation ErrorType = "cancellation"
	ErrorTypeFatal        ErrorType = "fatal"
)

// ErrSkipped is returned by a step that had nothing to do. The manager marks
// the step skipped and continues.
var ErrSkipped = errors.New("step skipped")

// OperationError ties a step failure to the step that produced it
type OperationError struct {
	Type    ErrorType
	Step    string
	Message string
	Cause   error
}

// Error implements the error interface
func (e *OperationError) Error() string {
	if e == nil {
		return "unknown operation error"
	}
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Step != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Type, e.Step, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

// Unwrap returns the underlying error
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewExecutionError creates a new execution error
func NewExecutionError(step string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeExecution,
		Step:    step,
		Message: "step execution failed",
		Cause:   cause,
	}
}

// NewCancellationError creates a new cancellation error
func NewCancellationError(step string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeCancellation,
		Step:    step,
		Message: "operation was cancelled",
		Cause:   cause,
	}
}

// NewFatalError creates a new fatal error
func NewFatalError(message string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeFatal,
		Message: message,
		Cause:   cause,
	}
}

// GetErrorType returns the type of the error
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ""
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Type
	}
	return ErrorTypeExecution
}

// WrapError wraps err with the step it came from. Context cancellation is
// reported as a cancellation error.
func WrapError(err error, step string) error {
	if err == nil {
		return nil
	}

	var opErr *OperationError
	if errors.As(err, &opErr) {
		if opErr.Step == "" {
			opErr.Step = step
		}
		return err
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewCancellationError(step, err)
	}
	return NewExecutionError(step, err)
}
