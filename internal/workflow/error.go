package workflow

import (
	"fmt"
	"strings"
)

// StepError identifies the step whose execution or compensation failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step '%s': %s", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// CompensationError is returned when a failed workflow could not be fully
// rolled back. The steps listed in it may have left side effects behind.
type CompensationError struct {
	executionErr     *StepError
	compensationErrs []*StepError
}

func (e *CompensationError) ExecutionError() error {
	return e.executionErr
}

func (e *CompensationError) CompensationErrors() []*StepError {
	return e.compensationErrs
}

func (e *CompensationError) Error() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s, could not compensate ", e.executionErr)

	for idx, err := range e.compensationErrs {
		if idx > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(err.Error())
	}

	return sb.String()
}

// Unwrap exposes the execution error to errors.Is and errors.As.
func (e *CompensationError) Unwrap() error {
	return e.executionErr
}

func NewCompensationError(executionErr *StepError, compensationErrs ...*StepError) *CompensationError {
	return &CompensationError{
		executionErr:     executionErr,
		compensationErrs: compensationErrs,
	}
}

var _ error = &CompensationError{}
