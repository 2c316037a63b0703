package ledger

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// CreateCommitment claims part of a note's balance. Only active notes with
// sufficient balance accept commitments; the debit and the commitment row
// commit atomically.
func (e *Engine) CreateCommitment(ctx context.Context, actor string, in CommitmentInput) (*Commitment, error) {
	if err := CheckAmount(in.Value, false); err != nil {
		return nil, err
	}

	var c Commitment
	err := e.withTx(ctx, func(tx *sqlx.Tx) error {
		nc, err := lockCreditNote(ctx, tx, in.CreditNoteID)
		if err != nil {
			return err
		}
		if nc.Status != StatusActive {
			return fmt.Errorf("%w: note %q is %s, not active", ErrInvalidState, nc.Code, nc.Status)
		}
		if err := sectionExists(ctx, tx, in.SectionID); err != nil {
			return err
		}
		if in.Value.GreaterThan(nc.AvailableBalance) {
			return &InsufficientBalanceError{Entity: "credit note", Code: nc.Code,
				Available: nc.AvailableBalance, Requested: in.Value}
		}

		nc.applyDebit(in.Value)
		if err := updateNoteBalance(ctx, tx, nc); err != nil {
			return err
		}

		err = tx.GetContext(ctx, &c, `
			INSERT INTO commitments
				(code, original_value, value, committed_at, note, annotation,
				 informational, credit_note_id, section_id)
			VALUES ($1, $2, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, code, original_value, value, committed_at, note,
			          annotation, informational, credit_note_id, section_id,
			          created_at, updated_at`,
			in.Code, in.Value, in.CommittedAt, in.Note, AnnotationNone,
			in.Informational, in.CreditNoteID, in.SectionID)
		if err != nil {
			return fmt.Errorf("insert commitment %q: %w", in.Code, err)
		}
		return recordAudit(ctx, tx, actor, ActionCommitmentCreated,
			fmt.Sprintf("commitment %q of %s recorded against note %q (balance now %s)",
				in.Code, in.Value.StringFixed(2), nc.Code, nc.AvailableBalance.StringFixed(2)))
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("ledger", "commitment %q created (value %s)", c.Code, c.Value.StringFixed(2))
	return &c, nil
}

// UpdateCommitment edits a commitment. A value change is applied as a
// delta against the owning note's balance: the note must absorb the
// difference, not the raw new value. The stored original value shifts by
// the same delta so the remaining reversible value stays well defined.
func (e *Engine) UpdateCommitment(ctx context.Context, actor string, id int64, in CommitmentUpdate) (*Commitment, error) {
	if err := CheckAmount(in.Value, true); err != nil {
		return nil, err
	}

	var c *Commitment
	err := e.withTx(ctx, func(tx *sqlx.Tx) error {
		noteID, err := commitmentNoteID(ctx, tx, id)
		if err != nil {
			return err
		}
		nc, err := lockCreditNote(ctx, tx, noteID)
		if err != nil {
			return err
		}
		c, err = lockCommitment(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := sectionExists(ctx, tx, in.SectionID); err != nil {
			return err
		}

		// delta > 0 means the commitment grows and the note is debited.
		delta := in.Value.Sub(c.Value)
		if delta.GreaterThan(nc.AvailableBalance) {
			return &InsufficientBalanceError{Entity: "credit note", Code: nc.Code,
				Available: nc.AvailableBalance.Add(c.Value), Requested: in.Value}
		}
		nc.applyDebit(delta)
		if err := updateNoteBalance(ctx, tx, nc); err != nil {
			return err
		}

		c.Code = in.Code
		c.OriginalValue = c.OriginalValue.Add(delta)
		c.Value = in.Value
		c.CommittedAt = in.CommittedAt
		c.Note = in.Note
		c.Informational = in.Informational
		c.SectionID = in.SectionID

		if _, err := tx.ExecContext(ctx, `
			UPDATE commitments
			SET code = $1, original_value = $2, value = $3, committed_at = $4,
			    note = $5, informational = $6, section_id = $7, updated_at = now()
			WHERE id = $8`,
			c.Code, c.OriginalValue, c.Value, c.CommittedAt, c.Note,
			c.Informational, c.SectionID, c.ID); err != nil {
			return fmt.Errorf("update commitment %q: %w", c.Code, err)
		}
		return recordAudit(ctx, tx, actor, ActionCommitmentUpdated,
			fmt.Sprintf("commitment %q updated to %s (note %q balance now %s)",
				c.Code, c.Value.StringFixed(2), nc.Code, nc.AvailableBalance.StringFixed(2)))
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCommitment removes a commitment with no recorded reversals and
// credits its full current value back to the note.
func (e *Engine) DeleteCommitment(ctx context.Context, actor string, id int64) error {
	return e.withTx(ctx, func(tx *sqlx.Tx) error {
		noteID, err := commitmentNoteID(ctx, tx, id)
		if err != nil {
			return err
		}
		nc, err := lockCreditNote(ctx, tx, noteID)
		if err != nil {
			return err
		}
		c, err := lockCommitment(ctx, tx, id)
		if err != nil {
			return err
		}

		var reversals int
		if err := tx.GetContext(ctx, &reversals,
			`SELECT count(*) FROM reversals WHERE commitment_id = $1`, id); err != nil {
			return fmt.Errorf("count reversals of commitment %q: %w", c.Code, err)
		}
		if reversals > 0 {
			return &ConflictError{Entity: "commitment", Code: c.Code,
				Reason: fmt.Sprintf("%d reversal(s) recorded against it", reversals)}
		}

		nc.applyCredit(c.Value)
		if err := updateNoteBalance(ctx, tx, nc); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM commitments WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete commitment %q: %w", c.Code, err)
		}
		return recordAudit(ctx, tx, actor, ActionCommitmentDeleted,
			fmt.Sprintf("commitment %q deleted, %s returned to note %q",
				c.Code, c.Value.StringFixed(2), nc.Code))
	})
}
