package ledger

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// CreateReturn sends part of a note's available balance back to the
// treasury, outside the commitment flow. Append-only; the debit may flip
// the note to fully committed.
func (e *Engine) CreateReturn(ctx context.Context, actor string, in ReturnInput) (*Return, error) {
	if err := CheckAmount(in.Value, false); err != nil {
		return nil, err
	}

	var ret Return
	err := e.withTx(ctx, func(tx *sqlx.Tx) error {
		nc, err := lockCreditNote(ctx, tx, in.CreditNoteID)
		if err != nil {
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

		err = tx.GetContext(ctx, &ret, `
			INSERT INTO returns (credit_note_id, value, returned_at, note)
			VALUES ($1, $2, $3, $4)
			RETURNING id, credit_note_id, value, returned_at, note, created_at`,
			in.CreditNoteID, in.Value, in.ReturnedAt, in.Note)
		if err != nil {
			return fmt.Errorf("insert return for note %q: %w", nc.Code, err)
		}
		return recordAudit(ctx, tx, actor, ActionReturnCreated,
			fmt.Sprintf("return of %s from note %q (balance now %s)",
				in.Value.StringFixed(2), nc.Code, nc.AvailableBalance.StringFixed(2)))
	})
	if err != nil {
		return nil, err
	}
	return &ret, nil
}
