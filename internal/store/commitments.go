package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/farxc/credit_ledger/internal/ledger"
)

type CommitmentStore struct {
	db *sqlx.DB
}

const commitmentColumns = `
	c.id, c.code, c.original_value, c.value, c.committed_at, c.note,
	c.annotation, c.informational, c.credit_note_id, c.section_id,
	c.created_at, c.updated_at, s.name AS section_name,
	nc.code AS credit_note_code`

// List returns one page of commitments, newest first, plus the total
// match count.
func (cs *CommitmentStore) List(ctx context.Context, f CommitmentFilter) ([]CommitmentWithRefs, int, error) {
	var conds []string
	var args []any
	if f.CreditNoteID != 0 {
		args = append(args, f.CreditNoteID)
		conds = append(conds, fmt.Sprintf("c.credit_note_id = $%d", len(args)))
	}
	if f.SectionID != 0 {
		args = append(args, f.SectionID)
		conds = append(conds, fmt.Sprintf("c.section_id = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := cs.db.GetContext(ctx, &total,
		`SELECT count(*) FROM commitments c`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count commitments: %w", err)
	}

	page, size := normalizePage(f.Page, f.Size)
	query := `SELECT` + commitmentColumns + `
		FROM commitments c
		JOIN sections s ON s.id = c.section_id
		JOIN credit_notes nc ON nc.id = c.credit_note_id` + where +
		fmt.Sprintf(` ORDER BY c.committed_at DESC, c.id DESC LIMIT %d OFFSET %d`,
			size, (page-1)*size)

	commitments := []CommitmentWithRefs{}
	if err := cs.db.SelectContext(ctx, &commitments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list commitments: %w", err)
	}
	return commitments, total, nil
}

func (cs *CommitmentStore) GetByID(ctx context.Context, id int64) (*CommitmentWithRefs, error) {
	var c CommitmentWithRefs
	err := cs.db.GetContext(ctx, &c, `SELECT`+commitmentColumns+`
		FROM commitments c
		JOIN sections s ON s.id = c.section_id
		JOIN credit_notes nc ON nc.id = c.credit_note_id
		WHERE c.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ledger.NotFoundError{Entity: "commitment", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get commitment %d: %w", id, err)
	}
	return &c, nil
}
