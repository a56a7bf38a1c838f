/*
errors.go - Centralized error types for the disposition core

PURPOSE:
  All error types in one place for consistency and discoverability.
  The taxonomy has four classes:
  1. Validation errors - malformed/missing required input
  2. Precondition errors - an allocation strategy's numeric basis is
     absent, or supplied percentages don't sum to 100
  3. Not-found errors - a referenced batch/project/settlement is missing
  4. Store errors - the underlying store failed; propagated unchanged

PROPAGATION POLICY:
  Validation and precondition checks run before any mutation, so a
  rejected operation leaves no partial state. Store errors are never
  retried or translated here; callers own user-facing messaging.

USAGE:
  if errors.Is(err, itad.ErrPreconditionFailed) { ... }

  var alloc *itad.AllocationPreconditionError
  if errors.As(err, &alloc) { ... }

SEE ALSO:
  - allocation/engine.go: Precondition checks
  - settlement/calculator.go: State-transition errors
*/
package itad

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of all input-validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrPreconditionFailed is returned when an allocation strategy's
	// required numeric basis is absent or zero, or percentages don't sum
	// to 100.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrBatchNotFound is returned when a referenced harvesting batch
	// doesn't exist.
	ErrBatchNotFound = errors.New("harvesting batch not found")

	// ErrProjectNotFound is returned when a referenced project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")

	// ErrSettlementNotFound is returned when a referenced settlement
	// doesn't exist.
	ErrSettlementNotFound = errors.New("settlement not found")

	// ErrAssetNotFound is returned when a referenced asset doesn't exist.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrComponentNotFound is returned when a referenced component doesn't exist.
	ErrComponentNotFound = errors.New("component not found")

	// ErrInvalidTransition is returned when a settlement operation is
	// called from a payment status that doesn't permit it.
	ErrInvalidTransition = errors.New("invalid payment status transition")

	// ErrBatchCompleted is returned when mutating items of a completed batch.
	ErrBatchCompleted = errors.New("harvesting batch is completed")

	// ErrConcurrentModification is returned when a version check detects
	// a conflicting concurrent write.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// AllocationPreconditionError describes why an allocation strategy could
// not run against the given item set.
type AllocationPreconditionError struct {
	BatchID BatchID
	Method  AllocationMethod
	Message string
}

func (e *AllocationPreconditionError) Error() string {
	return fmt.Sprintf("cannot allocate batch %s with %s: %s", e.BatchID, e.Method, e.Message)
}

func (e *AllocationPreconditionError) Unwrap() error { return ErrPreconditionFailed }

// TransitionError describes a rejected payment-status transition.
type TransitionError struct {
	SettlementID SettlementID
	From         PaymentStatus
	To           PaymentStatus
	At           time.Time
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("settlement %s: cannot transition %s -> %s", e.SettlementID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input
// or state, as opposed to a store failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrPreconditionFailed) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrBatchCompleted)
}

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBatchNotFound) ||
		errors.Is(err, ErrProjectNotFound) ||
		errors.Is(err, ErrSettlementNotFound) ||
		errors.Is(err, ErrAssetNotFound) ||
		errors.Is(err, ErrComponentNotFound)
}

// IsConflict returns true if the error indicates a concurrent write conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
