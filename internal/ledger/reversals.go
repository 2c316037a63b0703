package ledger

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// remainingReversible recomputes how much of a commitment can still be
// reversed: original value minus every reversal recorded so far. The
// stored current value is display state; this computed form is the
// authoritative rule, robust to concurrent partial reversals because it
// runs under the commitment's row lock.
func remainingReversible(ctx context.Context, tx *sqlx.Tx, c *Commitment) (decimal.Decimal, error) {
	var reversed decimal.Decimal
	if err := tx.GetContext(ctx, &reversed,
		`SELECT COALESCE(SUM(value), 0) FROM reversals WHERE commitment_id = $1`, c.ID); err != nil {
		return decimal.Zero, fmt.Errorf("sum reversals of commitment %q: %w", c.Code, err)
	}
	return c.OriginalValue.Sub(reversed), nil
}

// CreateReversal undoes part or all of a commitment's value, crediting the
// amount back to the owning note. Reversals are append-only: they are
// never edited or deleted after creation.
func (e *Engine) CreateReversal(ctx context.Context, actor string, in ReversalInput) (*Reversal, error) {
	if err := CheckAmount(in.Value, false); err != nil {
		return nil, err
	}

	var rev Reversal
	err := e.withTx(ctx, func(tx *sqlx.Tx) error {
		noteID, err := commitmentNoteID(ctx, tx, in.CommitmentID)
		if err != nil {
			return err
		}
		nc, err := lockCreditNote(ctx, tx, noteID)
		if err != nil {
			return err
		}
		c, err := lockCommitment(ctx, tx, in.CommitmentID)
		if err != nil {
			return err
		}

		remaining, err := remainingReversible(ctx, tx, c)
		if err != nil {
			return err
		}
		if in.Value.GreaterThan(remaining) {
			return &InvalidAmountError{Value: in.Value,
				Reason: fmt.Sprintf("exceeds remaining value %s of commitment %q",
					remaining.StringFixed(2), c.Code)}
		}

		newValue := clampBalance(remaining.Sub(in.Value))
		annotation := AnnotationPartiallyReversed
		if newValue.IsZero() {
			annotation = AnnotationFullyReversed
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE commitments
			SET value = $1, annotation = $2, updated_at = now()
			WHERE id = $3`,
			newValue, annotation, c.ID); err != nil {
			return fmt.Errorf("reduce commitment %q: %w", c.Code, err)
		}

		nc.applyCredit(in.Value)
		if err := updateNoteBalance(ctx, tx, nc); err != nil {
			return err
		}

		err = tx.GetContext(ctx, &rev, `
			INSERT INTO reversals (commitment_id, value, reversed_at, note)
			VALUES ($1, $2, $3, $4)
			RETURNING id, commitment_id, value, reversed_at, note, created_at`,
			in.CommitmentID, in.Value, in.ReversedAt, in.Note)
		if err != nil {
			return fmt.Errorf("insert reversal for commitment %q: %w", c.Code, err)
		}
		return recordAudit(ctx, tx, actor, ActionReversalCreated,
			fmt.Sprintf("reversal of %s on commitment %q (note %q balance now %s)",
				in.Value.StringFixed(2), c.Code, nc.Code, nc.AvailableBalance.StringFixed(2)))
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("ledger", "reversal of %s recorded on commitment %d", rev.Value.StringFixed(2), rev.CommitmentID)
	return &rev, nil
}
