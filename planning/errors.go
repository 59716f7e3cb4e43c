/*
errors.go - Centralized error types for the planning engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers (HTTP layer, CLI) translate these into user-facing responses.

ERROR CATEGORIES:
  1. Goal errors - The projection cannot reach the target within the horizon
  2. Validation errors - A plan parameter violates its constraint

USAGE:
  result, err := planning.Project(ctx, params)
  var unreachable *planning.GoalUnreachableError
  if errors.As(err, &unreachable) {
      fmt.Println("gave up after", unreachable.MaxMonths, "months")
  }

SEE ALSO:
  - projection.go: Raises GoalUnreachableError
  - params.go: Raises InvalidParameterError
  - api/handlers.go: Maps these errors to HTTP status codes
*/
package planning

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrGoalUnreachable is returned when the simulation exceeds the month
	// ceiling without the balance reaching the target.
	ErrGoalUnreachable = errors.New("goal unreachable")

	// ErrInvalidParameter is returned when a plan parameter is out of range.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// GoalUnreachableError provides details about an abandoned projection.
type GoalUnreachableError struct {
	MaxMonths int
	Balance   float64 // Balance when the ceiling was hit (rounded to cents)
	Target    float64
}

func (e *GoalUnreachableError) Error() string {
	return fmt.Sprintf("goal of %.2f not reached within %d months (%d years); balance was %.2f",
		e.Target, e.MaxMonths, e.MaxMonths/MonthsPerYear, e.Balance)
}

func (e *GoalUnreachableError) Unwrap() error {
	return ErrGoalUnreachable
}

// InvalidParameterError names the plan field that failed validation.
type InvalidParameterError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidParameterError) Unwrap() error {
	return ErrInvalidParameter
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to input the user can correct.
func IsClientError(err error) bool {
	return errors.Is(err, ErrGoalUnreachable) ||
		errors.Is(err, ErrInvalidParameter)
}
