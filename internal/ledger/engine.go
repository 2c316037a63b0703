package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/farxc/credit_ledger/internal/logger"
)

// DefaultLockTimeout bounds how long a mutation waits for its row locks
// before failing with ErrBusy.
const DefaultLockTimeout = 5 * time.Second

// Engine executes every balance-mutating operation. It holds no entity
// state between calls: each operation loads, validates, mutates, and
// persists its working set inside one transaction.
type Engine struct {
	db          *sqlx.DB
	log         *logger.Logger
	lockTimeout time.Duration
}

func NewEngine(db *sqlx.DB, log *logger.Logger) *Engine {
	return &Engine{db: db, log: log, lockTimeout: DefaultLockTimeout}
}

// SetLockTimeout overrides the per-transaction lock wait bound.
func (e *Engine) SetLockTimeout(d time.Duration) {
	if d > 0 {
		e.lockTimeout = d
	}
}

// withTx runs fn inside a transaction with the lock timeout applied.
// Driver errors are folded into the engine taxonomy; any failure rolls the
// whole transaction back so no partial effect is observable.
func (e *Engine) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", e.lockTimeout.Milliseconds())); err != nil {
		return fmt.Errorf("set lock timeout: %w", err)
	}

	if err := fn(tx); err != nil {
		return translateDBError(err)
	}
	if err := tx.Commit(); err != nil {
		return translateDBError(fmt.Errorf("commit: %w", err))
	}
	return nil
}

// lockCreditNote loads a note row under an exclusive lock. Two-row
// operations must call this before lockCommitment: the global lock order
// is always note first, then commitment.
func lockCreditNote(ctx context.Context, tx *sqlx.Tx, id int64) (*CreditNote, error) {
	var nc CreditNote
	err := tx.GetContext(ctx, &nc, `
		SELECT id, code, value, available_balance, status, sphere, source,
		       ptres, internal_plan, expense_nature, arrival_date,
		       commitment_deadline, description, section_id, created_at, updated_at
		FROM credit_notes
		WHERE id = $1
		FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "credit note", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("lock credit note %d: %w", id, err)
	}
	return &nc, nil
}

func lockCommitment(ctx context.Context, tx *sqlx.Tx, id int64) (*Commitment, error) {
	var c Commitment
	err := tx.GetContext(ctx, &c, `
		SELECT id, code, original_value, value, committed_at, note, annotation,
		       informational, credit_note_id, section_id, created_at, updated_at
		FROM commitments
		WHERE id = $1
		FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "commitment", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("lock commitment %d: %w", id, err)
	}
	return &c, nil
}

// commitmentNoteID resolves the owning note of a commitment without
// locking, so the note lock can be taken first.
func commitmentNoteID(ctx context.Context, tx *sqlx.Tx, commitmentID int64) (int64, error) {
	var noteID int64
	err := tx.GetContext(ctx, &noteID,
		`SELECT credit_note_id FROM commitments WHERE id = $1`, commitmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, &NotFoundError{Entity: "commitment", ID: commitmentID}
	}
	if err != nil {
		return 0, fmt.Errorf("resolve commitment %d: %w", commitmentID, err)
	}
	return noteID, nil
}

func sectionExists(ctx context.Context, tx *sqlx.Tx, id int64) error {
	var exists bool
	if err := tx.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM sections WHERE id = $1)`, id); err != nil {
		return fmt.Errorf("check section %d: %w", id, err)
	}
	if !exists {
		return &NotFoundError{Entity: "section", ID: id}
	}
	return nil
}

// updateNoteBalance persists an engine-derived balance and status.
func updateNoteBalance(ctx context.Context, tx *sqlx.Tx, nc *CreditNote) error {
	if _, err := tx.ExecContext(ctx, `
		UPDATE credit_notes
		SET available_balance = $1, status = $2, updated_at = now()
		WHERE id = $3`,
		nc.AvailableBalance, nc.Status, nc.ID); err != nil {
		return fmt.Errorf("update note %q balance: %w", nc.Code, err)
	}
	return nil
}

// applyDebit subtracts value from the note's balance and re-derives status.
// The caller has already verified the note can absorb the debit.
func (nc *CreditNote) applyDebit(value decimal.Decimal) {
	nc.AvailableBalance = clampBalance(nc.AvailableBalance.Sub(value))
	nc.Status = deriveStatus(nc.AvailableBalance)
}

// applyCredit adds value back to the note's balance and re-derives status,
// flipping a fully committed note back to active.
func (nc *CreditNote) applyCredit(value decimal.Decimal) {
	nc.AvailableBalance = clampBalance(nc.AvailableBalance.Add(value))
	nc.Status = deriveStatus(nc.AvailableBalance)
}
