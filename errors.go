package accrual

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("accrual: not found")
	ErrAlreadyExists = errors.New("accrual: already exists")
	ErrInvalidInput  = errors.New("accrual: invalid input")

	// Plan errors
	ErrPlanNotFound         = errors.New("accrual: plan not found")
	ErrPlanArchived         = errors.New("accrual: plan is archived")
	ErrPlanImmutable        = errors.New("accrual: plan is referenced by invoice items and cannot change")
	ErrComponentNotFound    = errors.New("accrual: offering component not found")
	ErrMissingPlanComponent = errors.New("accrual: plan has no price for component")
	ErrDuplicateComponent   = errors.New("accrual: duplicate component type")

	// Customer errors
	ErrCustomerNotFound = errors.New("accrual: customer not found")

	// Resource errors
	ErrResourceNotFound = errors.New("accrual: resource not found")
	ErrInvalidState     = errors.New("accrual: invalid resource state transition")
	ErrNotBillable      = errors.New("accrual: resource is not in a billable state")
	ErrNoPlanPeriod     = errors.New("accrual: resource has no active plan period")

	// Usage errors
	ErrUsageBufferFull = errors.New("accrual: usage buffer full")
	ErrInvalidAmount   = errors.New("accrual: invalid usage amount")

	// Invoice errors
	ErrInvoiceNotFound   = errors.New("accrual: invoice not found")
	ErrInvoiceFinalized  = errors.New("accrual: invoice already finalized")
	ErrInvoicePaid       = errors.New("accrual: invoice already paid")
	ErrInvoiceCanceled   = errors.New("accrual: invoice is canceled")
	ErrInvalidTransition = errors.New("accrual: invalid invoice state transition")
	ErrItemNotFound      = errors.New("accrual: invoice item not found")

	// Store errors
	ErrStoreNotReady     = errors.New("accrual: store not ready")
	ErrStoreClosed       = errors.New("accrual: store is closed")
	ErrTransactionFailed = errors.New("accrual: transaction failed")
	ErrMigrationFailed   = errors.New("accrual: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("accrual: validation failed for %s: %s", e.Field, e.Message)
}

// MultiError collects per-unit failures from a recalculation run so one
// customer's error never aborts the others.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "accrual: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("accrual: %d errors occurred", len(e.Errors))
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// ErrOrNil returns the MultiError itself when it holds errors, nil
// otherwise.
func (e MultiError) ErrOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrResourceNotFound) ||
		errors.Is(err, ErrComponentNotFound) ||
		errors.Is(err, ErrInvoiceNotFound) ||
		errors.Is(err, ErrItemNotFound)
}

// IsInvariantViolation returns true if the error indicates a sequencing
// bug upstream rather than bad input or transient state.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrInvoiceFinalized) ||
		errors.Is(err, ErrPlanImmutable) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrInvalidState)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUsageBufferFull) ||
		errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed)
}
