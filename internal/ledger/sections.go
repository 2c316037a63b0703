package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// CreateSection registers an organizational section.
func (e *Engine) CreateSection(ctx context.Context, actor, name string) (*Section, error) {
	var s Section
	err := e.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &s,
			`INSERT INTO sections (name) VALUES ($1) RETURNING id, name`, name)
		if err != nil {
			return fmt.Errorf("insert section %q: %w", name, err)
		}
		return recordAudit(ctx, tx, actor, ActionSectionCreated,
			fmt.Sprintf("section %q created", name))
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// RenameSection changes a section's name, which must stay unique.
func (e *Engine) RenameSection(ctx context.Context, actor string, id int64, name string) (*Section, error) {
	var s Section
	err := e.withTx(ctx, func(tx *sqlx.Tx) error {
		var old string
		err := tx.GetContext(ctx, &old, `SELECT name FROM sections WHERE id = $1 FOR UPDATE`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return &NotFoundError{Entity: "section", ID: id}
		}
		if err != nil {
			return fmt.Errorf("lock section %d: %w", id, err)
		}
		err = tx.GetContext(ctx, &s,
			`UPDATE sections SET name = $1 WHERE id = $2 RETURNING id, name`, name, id)
		if err != nil {
			return fmt.Errorf("rename section %d: %w", id, err)
		}
		return recordAudit(ctx, tx, actor, ActionSectionUpdated,
			fmt.Sprintf("section %q renamed to %q", old, name))
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteSection removes a section no credit note or commitment references.
// The guard runs in the application so callers get a classified conflict
// instead of a driver error; ON DELETE RESTRICT still backstops it.
func (e *Engine) DeleteSection(ctx context.Context, actor string, id int64) error {
	return e.withTx(ctx, func(tx *sqlx.Tx) error {
		var name string
		err := tx.GetContext(ctx, &name, `SELECT name FROM sections WHERE id = $1 FOR UPDATE`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return &NotFoundError{Entity: "section", ID: id}
		}
		if err != nil {
			return fmt.Errorf("lock section %d: %w", id, err)
		}

		var notes, commitments int
		if err := tx.GetContext(ctx, &notes,
			`SELECT count(*) FROM credit_notes WHERE section_id = $1`, id); err != nil {
			return fmt.Errorf("count notes of section %q: %w", name, err)
		}
		if notes > 0 {
			return &ConflictError{Entity: "section", Code: name,
				Reason: fmt.Sprintf("%d credit note(s) still reference it", notes)}
		}
		if err := tx.GetContext(ctx, &commitments,
			`SELECT count(*) FROM commitments WHERE section_id = $1`, id); err != nil {
			return fmt.Errorf("count commitments of section %q: %w", name, err)
		}
		if commitments > 0 {
			return &ConflictError{Entity: "section", Code: name,
				Reason: fmt.Sprintf("%d commitment(s) still reference it", commitments)}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM sections WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete section %q: %w", name, err)
		}
		return recordAudit(ctx, tx, actor, ActionSectionDeleted,
			fmt.Sprintf("section %q deleted", name))
	})
}
