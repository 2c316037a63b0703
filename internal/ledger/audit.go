package ledger

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Audit action names. Kept stable because downstream tooling filters on
// them.
const (
	ActionLoginSuccess      = "LOGIN_SUCCESS"
	ActionLoginFailed       = "LOGIN_FAILED"
	ActionUserCreated       = "USER_CREATED"
	ActionUserDeleted       = "USER_DELETED"
	ActionSectionCreated    = "SECTION_CREATED"
	ActionSectionUpdated    = "SECTION_UPDATED"
	ActionSectionDeleted    = "SECTION_DELETED"
	ActionNoteCreated       = "NC_CREATED"
	ActionNoteUpdated       = "NC_UPDATED"
	ActionNoteDeleted       = "NC_DELETED"
	ActionCommitmentCreated = "EMPENHO_CREATED"
	ActionCommitmentUpdated = "EMPENHO_UPDATED"
	ActionCommitmentDeleted = "EMPENHO_DELETED"
	ActionReversalCreated   = "ANULACAO_CREATED"
	ActionReturnCreated     = "RECOLHIMENTO_CREATED"
	ActionReportGenerated   = "REPORT_GENERATED"
)

// recordAudit writes the audit entry for a mutation inside the mutation's
// own transaction, so the entry and the row changes commit or roll back
// together.
func recordAudit(ctx context.Context, tx *sqlx.Tx, username, action, details string) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO audit_logs (username, action, details) VALUES ($1, $2, $3)`,
		username, action, details); err != nil {
		return fmt.Errorf("record audit %s: %w", action, err)
	}
	return nil
}

// RecordAudit writes a standalone audit entry outside any mutation, e.g.
// login attempts and report generation.
func (e *Engine) RecordAudit(ctx context.Context, username, action, details string) error {
	if _, err := e.db.ExecContext(ctx,
		`INSERT INTO audit_logs (username, action, details) VALUES ($1, $2, $3)`,
		username, action, details); err != nil {
		return fmt.Errorf("record audit %s: %w", action, err)
	}
	return nil
}
