package sprint

import (
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/sprintd/internal/provider"
)

var (
	// ErrIncompleteSprint indicates the review gate found artifacts
	// without a review counterpart. Reported, never fatal: the sprint
	// seals with Accepted=false and the run continues.
	ErrIncompleteSprint = errors.New("sprint has unreviewed artifacts")

	// ErrSealed indicates an operation that requires an open sprint
	// was attempted after sealing.
	ErrSealed = errors.New("sprint record is sealed")

	// ErrNoFollowUp indicates a follow-up pass was requested without
	// instructions.
	ErrNoFollowUp = errors.New("follow-up requires at least one instruction")

	// ErrInvalidState indicates a controller transition out of order.
	ErrInvalidState = errors.New("invalid controller state")
)

// GenerationError wraps a role agent's failed or canceled backend call.
// It aborts the current sprint's dispatching phase only; prior sprints
// and prior artifacts stay valid.
type GenerationError struct {
	Role  provider.Role
	Index int
	Err   error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed for %s[%d]: %v", e.Role, e.Index, e.Err)
}

// Unwrap allows errors.Is and errors.As to reach the cause.
func (e *GenerationError) Unwrap() error {
	return e.Err
}
