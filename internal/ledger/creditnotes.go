package ledger

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// CreateCreditNote registers a new allocation. The balance starts at the
// full value and the status at active.
func (e *Engine) CreateCreditNote(ctx context.Context, actor string, in CreditNoteInput) (*CreditNote, error) {
	if err := CheckAmount(in.Value, false); err != nil {
		return nil, err
	}
	if in.CommitmentDeadline.Before(in.ArrivalDate) {
		return nil, &InvalidAmountError{Value: in.Value,
			Reason: fmt.Sprintf("commitment deadline %s precedes arrival date %s",
				in.CommitmentDeadline.Format("2006-01-02"), in.ArrivalDate.Format("2006-01-02"))}
	}

	var nc CreditNote
	err := e.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := sectionExists(ctx, tx, in.SectionID); err != nil {
			return err
		}
		err := tx.GetContext(ctx, &nc, `
			INSERT INTO credit_notes
				(code, value, available_balance, status, sphere, source, ptres,
				 internal_plan, expense_nature, arrival_date, commitment_deadline,
				 description, section_id)
			VALUES ($1, $2, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id, code, value, available_balance, status, sphere, source,
			          ptres, internal_plan, expense_nature, arrival_date,
			          commitment_deadline, description, section_id, created_at, updated_at`,
			in.Code, in.Value, StatusActive, in.Sphere, in.Source, in.PTRES,
			in.InternalPlan, in.ExpenseNature, in.ArrivalDate, in.CommitmentDeadline,
			in.Description, in.SectionID)
		if err != nil {
			return fmt.Errorf("insert credit note %q: %w", in.Code, err)
		}
		return recordAudit(ctx, tx, actor, ActionNoteCreated,
			fmt.Sprintf("credit note %q created with value %s", in.Code, in.Value.StringFixed(2)))
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("ledger", "credit note %q created (value %s)", nc.Code, nc.Value.StringFixed(2))
	return &nc, nil
}

// UpdateCreditNote edits a note's caller-settable fields. The balance is
// re-derived from the amount already committed, never reset: shrinking the
// note below what commitments and returns have consumed is rejected.
func (e *Engine) UpdateCreditNote(ctx context.Context, actor string, id int64, in CreditNoteInput) (*CreditNote, error) {
	if err := CheckAmount(in.Value, false); err != nil {
		return nil, err
	}
	if in.CommitmentDeadline.Before(in.ArrivalDate) {
		return nil, &InvalidAmountError{Value: in.Value,
			Reason: "commitment deadline precedes arrival date"}
	}

	var nc *CreditNote
	err := e.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		nc, err = lockCreditNote(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := sectionExists(ctx, tx, in.SectionID); err != nil {
			return err
		}

		alreadyConsumed := nc.Value.Sub(nc.AvailableBalance)
		newBalance := in.Value.Sub(alreadyConsumed)
		if newBalance.IsNegative() && !roundsToZero(newBalance) {
			return fmt.Errorf("%w: new value %s is below the %s already consumed on note %q",
				ErrInvalidState, in.Value.StringFixed(2), alreadyConsumed.StringFixed(2), nc.Code)
		}

		nc.Code = in.Code
		nc.Value = in.Value
		nc.AvailableBalance = clampBalance(newBalance)
		nc.Status = deriveStatus(nc.AvailableBalance)
		nc.Sphere = in.Sphere
		nc.Source = in.Source
		nc.PTRES = in.PTRES
		nc.InternalPlan = in.InternalPlan
		nc.ExpenseNature = in.ExpenseNature
		nc.ArrivalDate = in.ArrivalDate
		nc.CommitmentDeadline = in.CommitmentDeadline
		nc.Description = in.Description
		nc.SectionID = in.SectionID

		if _, err := tx.ExecContext(ctx, `
			UPDATE credit_notes
			SET code = $1, value = $2, available_balance = $3, status = $4,
			    sphere = $5, source = $6, ptres = $7, internal_plan = $8,
			    expense_nature = $9, arrival_date = $10, commitment_deadline = $11,
			    description = $12, section_id = $13, updated_at = now()
			WHERE id = $14`,
			nc.Code, nc.Value, nc.AvailableBalance, nc.Status, nc.Sphere,
			nc.Source, nc.PTRES, nc.InternalPlan, nc.ExpenseNature,
			nc.ArrivalDate, nc.CommitmentDeadline, nc.Description, nc.SectionID,
			nc.ID); err != nil {
			return fmt.Errorf("update credit note %q: %w", nc.Code, err)
		}
		return recordAudit(ctx, tx, actor, ActionNoteUpdated,
			fmt.Sprintf("credit note %q updated (value %s, balance %s)",
				nc.Code, nc.Value.StringFixed(2), nc.AvailableBalance.StringFixed(2)))
	})
	if err != nil {
		return nil, err
	}
	return nc, nil
}

// DeleteCreditNote removes a note that owns no commitments. Its returns
// are cascaded away; existing commitments block the deletion.
func (e *Engine) DeleteCreditNote(ctx context.Context, actor string, id int64) error {
	return e.withTx(ctx, func(tx *sqlx.Tx) error {
		nc, err := lockCreditNote(ctx, tx, id)
		if err != nil {
			return err
		}
		var commitments int
		if err := tx.GetContext(ctx, &commitments,
			`SELECT count(*) FROM commitments WHERE credit_note_id = $1`, id); err != nil {
			return fmt.Errorf("count commitments of note %q: %w", nc.Code, err)
		}
		if commitments > 0 {
			return &ConflictError{Entity: "credit note", Code: nc.Code,
				Reason: fmt.Sprintf("%d commitment(s) still reference it", commitments)}
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM credit_notes WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete credit note %q: %w", nc.Code, err)
		}
		return recordAudit(ctx, tx, actor, ActionNoteDeleted,
			fmt.Sprintf("credit note %q deleted", nc.Code))
	})
}

// ConservationGap returns original value minus balance, commitments (net
// of reversals), and returns for one note. Zero means the conservation
// invariant holds.
func (e *Engine) ConservationGap(ctx context.Context, noteID int64) (decimal.Decimal, error) {
	var gap decimal.Decimal
	err := e.db.GetContext(ctx, &gap, `
		SELECT nc.value - nc.available_balance
		       - COALESCE((SELECT SUM(c.value) FROM commitments c WHERE c.credit_note_id = nc.id), 0)
		       - COALESCE((SELECT SUM(r.value) FROM returns r WHERE r.credit_note_id = nc.id), 0)
		FROM credit_notes nc
		WHERE nc.id = $1`, noteID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("conservation check for note %d: %w", noteID, err)
	}
	return gap, nil
}
