package ledger

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Sentinel errors, one per kind in the engine's taxonomy. Use errors.Is to
// classify; structured errors below unwrap to these.
var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned for operations against an entity whose
	// state forbids them, e.g. committing against a non-active note.
	ErrInvalidState = errors.New("invalid state")

	// ErrInsufficientBalance is returned when a requested value exceeds
	// the available balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidAmount is returned for non-positive or otherwise
	// out-of-range values.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrDuplicateIdentifier is returned on a unique-code collision.
	ErrDuplicateIdentifier = errors.New("duplicate identifier")

	// ErrConflict is returned when referential integrity blocks the
	// operation, e.g. deleting a note that still has commitments.
	ErrConflict = errors.New("conflict")

	// ErrBusy is returned when a row lock cannot be acquired within the
	// configured timeout. The caller may retry.
	ErrBusy = errors.New("busy")
)

// InsufficientBalanceError reports how far a request overshot the balance.
type InsufficientBalanceError struct {
	Entity    string
	Code      string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("%s %q: requested %s exceeds available %s",
		e.Entity, e.Code, e.Requested.StringFixed(2), e.Available.StringFixed(2))
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// InvalidAmountError reports a value that fails validation.
type InvalidAmountError struct {
	Value  decimal.Decimal
	Reason string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %s: %s", e.Value.String(), e.Reason)
}

func (e *InvalidAmountError) Unwrap() error { return ErrInvalidAmount }

// NotFoundError names the entity that was missing.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ConflictError names the dependents blocking a deletion.
type ConflictError struct {
	Entity string
	Code   string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Entity, e.Code, e.Reason)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// Postgres error codes the engine translates into its own taxonomy.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqLockNotAvailable    = "55P03"
	pqDeadlockDetected    = "40P01"
)

// translateDBError folds driver-level failures into the engine taxonomy so
// callers never see pq internals. Errors already classified pass through.
func translateDBError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case pqUniqueViolation:
		return fmt.Errorf("%w: %s", ErrDuplicateIdentifier, pqErr.Detail)
	case pqForeignKeyViolation:
		return fmt.Errorf("%w: %s", ErrConflict, pqErr.Detail)
	case pqLockNotAvailable, pqDeadlockDetected:
		return fmt.Errorf("%w: %s", ErrBusy, pqErr.Message)
	}
	return err
}

// IsClientError reports whether the failure was caused by the request
// itself rather than by the system.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrDuplicateIdentifier) ||
		errors.Is(err, ErrConflict)
}

// IsRetryable reports whether the same request might succeed if retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrBusy)
}
