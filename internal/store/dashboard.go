package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type DashboardStore struct {
	db *sqlx.DB
}

// KPIs computes the dashboard headline numbers in one round trip.
// Informational commitments are excluded from the net committed value but
// their balance effect already sits in the notes' available balances.
func (ds *DashboardStore) KPIs(ctx context.Context) (*KPIs, error) {
	var k KPIs
	err := ds.db.GetContext(ctx, &k, `
		SELECT
			COALESCE((SELECT SUM(available_balance) FROM credit_notes), 0) AS total_available_balance,
			COALESCE((SELECT SUM(value) FROM commitments WHERE NOT informational), 0) AS net_committed,
			(SELECT count(*) FROM credit_notes WHERE status = 'active') AS active_notes`)
	if err != nil {
		return nil, fmt.Errorf("dashboard kpis: %w", err)
	}
	return &k, nil
}

// DeadlineAlerts lists active notes whose commitment deadline falls within
// the next window days, soonest first.
func (ds *DashboardStore) DeadlineAlerts(ctx context.Context, window int) ([]CreditNoteWithSection, error) {
	notes := []CreditNoteWithSection{}
	err := ds.db.SelectContext(ctx, &notes, `SELECT`+creditNoteColumns+`
		FROM credit_notes nc
		JOIN sections s ON s.id = nc.section_id
		WHERE nc.status = 'active'
		  AND nc.commitment_deadline <= current_date + $1
		ORDER BY nc.commitment_deadline, nc.id`, window)
	if err != nil {
		return nil, fmt.Errorf("deadline alerts: %w", err)
	}
	return notes, nil
}
