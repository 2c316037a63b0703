package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/farxc/credit_ledger/internal/ledger"
)

type AuditStore struct {
	db *sqlx.DB
}

// Latest returns audit entries newest first. The audit table itself is
// append-only; this is the only read path over it.
func (as *AuditStore) Latest(ctx context.Context, limit, offset int) ([]ledger.AuditEntry, error) {
	if limit < 1 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	entries := []ledger.AuditEntry{}
	err := as.db.SelectContext(ctx, &entries, `
		SELECT id, logged_at, username, action, details
		FROM audit_logs
		ORDER BY logged_at DESC, id DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}
