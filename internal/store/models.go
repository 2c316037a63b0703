package store

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/farxc/credit_ledger/internal/ledger"
)

// User roles. The original system distinguishes operators, who run the
// day-to-day ledger, from administrators, who may also delete entities and
// manage accounts.
type Role string

const (
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID             int64     `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	Email          string    `db:"email" json:"email"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	Role           Role      `db:"role" json:"role"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// CreditNoteWithSection joins the owning section's name onto a note for
// list and detail views.
type CreditNoteWithSection struct {
	ledger.CreditNote
	SectionName string `db:"section_name" json:"section_name"`
}

// CommitmentWithRefs joins the requesting section and owning note codes
// onto a commitment.
type CommitmentWithRefs struct {
	ledger.Commitment
	SectionName    string `db:"section_name" json:"section_name"`
	CreditNoteCode string `db:"credit_note_code" json:"credit_note_code"`
}

// CreditNoteFilter narrows and pages the credit-note listing. String
// filters match partially, case-insensitively.
type CreditNoteFilter struct {
	InternalPlan  string
	ExpenseNature string
	SectionID     int64
	Status        string
	Page          int
	Size          int
}

// CommitmentFilter narrows and pages the commitment listing.
type CommitmentFilter struct {
	CreditNoteID int64
	SectionID    int64
	Page         int
	Size         int
}

// KPIs are the dashboard headline numbers. NetCommitted is the sum of
// commitment values net of reversals, excluding informational commitments.
type KPIs struct {
	TotalAvailableBalance decimal.Decimal `db:"total_available_balance" json:"total_available_balance"`
	NetCommitted          decimal.Decimal `db:"net_committed" json:"net_committed"`
	ActiveNotes           int             `db:"active_notes" json:"active_notes"`
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 1000
)

// normalize clamps paging parameters to sane bounds.
func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}
