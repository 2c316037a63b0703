package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/farxc/credit_ledger/internal/ledger"
)

// MovementStore serves the append-only movement records: reversals of
// commitments and balance returns of credit notes.
type MovementStore struct {
	db *sqlx.DB
}

func (ms *MovementStore) ReversalsByCommitment(ctx context.Context, commitmentID int64) ([]ledger.Reversal, error) {
	reversals := []ledger.Reversal{}
	err := ms.db.SelectContext(ctx, &reversals, `
		SELECT id, commitment_id, value, reversed_at, note, created_at
		FROM reversals
		WHERE commitment_id = $1
		ORDER BY reversed_at, id`, commitmentID)
	if err != nil {
		return nil, fmt.Errorf("list reversals of commitment %d: %w", commitmentID, err)
	}
	return reversals, nil
}

func (ms *MovementStore) ReturnsByCreditNote(ctx context.Context, creditNoteID int64) ([]ledger.Return, error) {
	returns := []ledger.Return{}
	err := ms.db.SelectContext(ctx, &returns, `
		SELECT id, credit_note_id, value, returned_at, note, created_at
		FROM returns
		WHERE credit_note_id = $1
		ORDER BY returned_at, id`, creditNoteID)
	if err != nil {
		return nil, fmt.Errorf("list returns of note %d: %w", creditNoteID, err)
	}
	return returns, nil
}
