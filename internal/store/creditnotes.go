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

type CreditNoteStore struct {
	db *sqlx.DB
}

const creditNoteColumns = `
	nc.id, nc.code, nc.value, nc.available_balance, nc.status, nc.sphere,
	nc.source, nc.ptres, nc.internal_plan, nc.expense_nature,
	nc.arrival_date, nc.commitment_deadline, nc.description, nc.section_id,
	nc.created_at, nc.updated_at, s.name AS section_name`

// List returns one page of credit notes matching the filter, newest
// arrival first, plus the total match count.
func (cs *CreditNoteStore) List(ctx context.Context, f CreditNoteFilter) ([]CreditNoteWithSection, int, error) {
	where, args := creditNoteWhere(f)

	var total int
	countQuery := `SELECT count(*) FROM credit_notes nc` + where
	if err := cs.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count credit notes: %w", err)
	}

	page, size := normalizePage(f.Page, f.Size)
	query := `SELECT` + creditNoteColumns + `
		FROM credit_notes nc
		JOIN sections s ON s.id = nc.section_id` + where +
		fmt.Sprintf(` ORDER BY nc.arrival_date DESC, nc.id DESC LIMIT %d OFFSET %d`,
			size, (page-1)*size)

	notes := []CreditNoteWithSection{}
	if err := cs.db.SelectContext(ctx, &notes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list credit notes: %w", err)
	}
	return notes, total, nil
}

func (cs *CreditNoteStore) GetByID(ctx context.Context, id int64) (*CreditNoteWithSection, error) {
	var nc CreditNoteWithSection
	err := cs.db.GetContext(ctx, &nc, `SELECT`+creditNoteColumns+`
		FROM credit_notes nc
		JOIN sections s ON s.id = nc.section_id
		WHERE nc.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ledger.NotFoundError{Entity: "credit note", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get credit note %d: %w", id, err)
	}
	return &nc, nil
}

// creditNoteWhere builds the WHERE clause shared by the count and page
// queries. Placeholders are numbered to match the args slice.
func creditNoteWhere(f CreditNoteFilter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.InternalPlan != "" {
		add("nc.internal_plan ILIKE $%d", "%"+f.InternalPlan+"%")
	}
	if f.ExpenseNature != "" {
		add("nc.expense_nature ILIKE $%d", "%"+f.ExpenseNature+"%")
	}
	if f.SectionID != 0 {
		add("nc.section_id = $%d", f.SectionID)
	}
	if f.Status != "" {
		add("nc.status = $%d", f.Status)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
