package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/farxc/credit_ledger/internal/ledger"
)

type SectionStore struct {
	db *sqlx.DB
}

func (ss *SectionStore) List(ctx context.Context) ([]ledger.Section, error) {
	sections := []ledger.Section{}
	err := ss.db.SelectContext(ctx, &sections,
		`SELECT id, name FROM sections ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

func (ss *SectionStore) GetByID(ctx context.Context, id int64) (*ledger.Section, error) {
	var s ledger.Section
	err := ss.db.GetContext(ctx, &s, `SELECT id, name FROM sections WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ledger.NotFoundError{Entity: "section", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get section %d: %w", id, err)
	}
	return &s, nil
}
