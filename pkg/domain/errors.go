package domain

import (
	"errors"
	"fmt"
)

// ErrValidation is wrapped by every ValidationError.
var ErrValidation = errors.New("validation failed")

// ErrMaxIterations is reported when the iteration guard stops a run.
var ErrMaxIterations = errors.New("maximum iterations reached")

// ErrRunNotFound is returned when a run ID cannot be found in the store.
var ErrRunNotFound = errors.New("run not found")

// ValidationError describes malformed or unsafe input. It is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// CapabilityError is a failed call into an external collaborator.
// It is converted into data at the dispatch boundary and never reaches the loop.
type CapabilityError struct {
	Capability string
	Op         string
	Err        error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s.%s: %v", e.Capability, e.Op, e.Err)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// LoopAbortError aborts a multi-turn run. The partial transcript is discarded.
type LoopAbortError struct {
	Step int
	Err  error
}

func (e *LoopAbortError) Error() string {
	return fmt.Sprintf("workflow aborted at step %d: %v", e.Step, e.Err)
}

func (e *LoopAbortError) Unwrap() error {
	return e.Err
}

// NotificationError is a failed outcome notification. It never changes the verdict.
type NotificationError struct {
	Target string
	Status OutcomeStatus
	Err    error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification %s for %s: %v", e.Status, e.Target, e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}
