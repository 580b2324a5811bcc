/*
errors.go - Error kinds for the lifecycle and payment orchestrators

PURPOSE:
  All domain error kinds in one place. The orchestrators classify failures
  into four kinds with distinct propagation rules:

  ValidationError      bad/missing input, nothing written, caller can fix
  InvalidAmountError   calculator rejected the amount, nothing written
  PersistenceError     a critical record-store call failed, operation aborted
  MissingIdentityError Reopen cannot resolve a buyer name to unwind

  Failures of NON-critical store calls (client upsert on sell, client and
  document deletes on reopen, the audit insert on payment) never surface as
  errors from Sell/Reopen; they are logged warnings. The payment audit
  insert is the one non-critical failure that IS reported, without undoing
  the balance write (see payment.Service).

USAGE:
  Callers branch with errors.Is:

    if errors.Is(err, estate.ErrInvalidAmount) { ... 400 ... }
    if errors.Is(err, estate.ErrPersistence)   { ... 502 ... }

SEE ALSO:
  - lifecycle: Sell/Reopen step classification
  - payment: ApplyPayment step classification
*/
package estate

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned for bad or missing required input. Nothing
	// has been written when this is returned.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidAmount is returned when a payment amount is negative or not
	// numeric. Nothing has been written.
	ErrInvalidAmount = errors.New("invalid payment amount")

	// ErrPersistence is returned when a critical record-store call failed.
	// Earlier steps of the operation may already have committed.
	ErrPersistence = errors.New("record store write failed")

	// ErrMissingIdentity is returned when Reopen finds no buyer name on the
	// property and cannot unwind the linked rows.
	ErrMissingIdentity = errors.New("no buyer name to unwind")

	// ErrUnknownProject is returned when a project name matches no known
	// inventory collection.
	ErrUnknownProject = errors.New("unknown project")
)

// =============================================================================
// STRUCTURED ERRORS - Carry context, unwrap to sentinels
// =============================================================================

// ValidationError reports which input field failed and why.
type ValidationError struct {
	Field  string
	Reason string
	Err    error // sentinel; defaults to ErrValidation
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrValidation
}

// InvalidAmountError reports the rejected raw amount.
type InvalidAmountError struct {
	Value string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %q: must be a non-negative number", e.Value)
}

func (e *InvalidAmountError) Unwrap() error { return ErrInvalidAmount }

// PersistenceError reports which store call on which collection failed.
type PersistenceError struct {
	Op         string // "insert", "update", "delete", "get"
	Collection string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Collection, e.Err)
}

func (e *PersistenceError) Unwrap() error { return ErrPersistence }

// MissingIdentityError reports which unit could not be unwound.
type MissingIdentityError struct {
	Unit UnitID
}

func (e *MissingIdentityError) Error() string {
	return fmt.Sprintf("reopen %s: property has no buyer name", e.Unit)
}

func (e *MissingIdentityError) Unwrap() error { return ErrMissingIdentity }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is the caller's to fix: correcting
// the input and retrying has no side effects.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrMissingIdentity) ||
		errors.Is(err, ErrUnknownProject)
}

// IsRetryable reports whether re-running the same operation can succeed.
// Persistence failures are retryable: the saga steps are individually
// idempotent, so replaying a half-applied Sell or Reopen converges.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPersistence)
}
