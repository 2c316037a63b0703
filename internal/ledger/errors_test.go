package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestStructuredErrorsUnwrap(t *testing.T) {
	insufficient := &InsufficientBalanceError{
		Entity: "credit note", Code: "2024NC000123",
		Available: dec("50.00"), Requested: dec("80.00"),
	}
	assert.ErrorIs(t, insufficient, ErrInsufficientBalance)
	assert.Contains(t, insufficient.Error(), "2024NC000123")
	assert.Contains(t, insufficient.Error(), "80.00")

	invalid := &InvalidAmountError{Value: dec("-1"), Reason: "value must be positive"}
	assert.ErrorIs(t, invalid, ErrInvalidAmount)

	notFound := &NotFoundError{Entity: "commitment", ID: 42}
	assert.ErrorIs(t, notFound, ErrNotFound)
	assert.Contains(t, notFound.Error(), "commitment 42")

	conflict := &ConflictError{Entity: "section", Code: "SALC", Reason: "2 credit note(s) still reference it"}
	assert.ErrorIs(t, conflict, ErrConflict)
}

func TestTranslateDBError(t *testing.T) {
	assert.NoError(t, translateDBError(nil))

	// Errors outside the driver pass through unchanged.
	plain := errors.New("boom")
	assert.Equal(t, plain, translateDBError(plain))

	unique := &pq.Error{Code: "23505", Detail: "Key (code)=(2024NC000001) already exists."}
	assert.ErrorIs(t, translateDBError(unique), ErrDuplicateIdentifier)

	fk := &pq.Error{Code: "23503", Detail: "still referenced from table commitments"}
	assert.ErrorIs(t, translateDBError(fk), ErrConflict)

	locked := &pq.Error{Code: "55P03", Message: "could not obtain lock on row"}
	assert.ErrorIs(t, translateDBError(locked), ErrBusy)

	deadlock := &pq.Error{Code: "40P01", Message: "deadlock detected"}
	assert.ErrorIs(t, translateDBError(deadlock), ErrBusy)

	// Wrapped driver errors are still recognized.
	wrapped := fmt.Errorf("insert credit note: %w", unique)
	assert.ErrorIs(t, translateDBError(wrapped), ErrDuplicateIdentifier)

	// Unmapped driver codes pass through.
	other := &pq.Error{Code: "23514", Message: "check constraint violated"}
	assert.Equal(t, error(other), translateDBError(other))
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsClientError(ErrInvalidState))
	assert.True(t, IsClientError(&InsufficientBalanceError{}))
	assert.True(t, IsClientError(&InvalidAmountError{}))
	assert.True(t, IsClientError(ErrDuplicateIdentifier))
	assert.True(t, IsClientError(&ConflictError{}))
	assert.False(t, IsClientError(ErrNotFound))
	assert.False(t, IsClientError(ErrBusy))
	assert.False(t, IsClientError(errors.New("io failure")))

	assert.True(t, IsRetryable(ErrBusy))
	assert.False(t, IsRetryable(ErrConflict))
}
