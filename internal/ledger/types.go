// Package ledger is the balance-conservation engine behind the credit-note
// service. It owns the invariant that a credit note's available balance
// always equals its original value minus the net effect of commitments,
// reversals, and returns, and it enforces that invariant transactionally:
// every mutation locks the rows it touches, validates inside the same
// transaction, and commits the row changes together with an audit entry or
// not at all.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status of a credit note. Derived from the balance after every mutation,
// never set directly by a caller.
type Status string

const (
	StatusActive         Status = "active"
	StatusFullyCommitted Status = "fully_committed"
)

// deriveStatus maps a (clamped) balance to a note status.
func deriveStatus(balance decimal.Decimal) Status {
	if roundsToZero(balance) {
		return StatusFullyCommitted
	}
	return StatusActive
}

// Annotation summarizes the reversal state of a commitment.
type Annotation string

const (
	AnnotationNone              Annotation = ""
	AnnotationPartiallyReversed Annotation = "partially_reversed"
	AnnotationFullyReversed     Annotation = "fully_reversed"
)

// CreditNote is a budget allocation with a depletable available balance.
type CreditNote struct {
	ID                 int64           `db:"id" json:"id"`
	Code               string          `db:"code" json:"code"`
	Value              decimal.Decimal `db:"value" json:"value"`
	AvailableBalance   decimal.Decimal `db:"available_balance" json:"available_balance"`
	Status             Status          `db:"status" json:"status"`
	Sphere             string          `db:"sphere" json:"sphere"`
	Source             string          `db:"source" json:"source"`
	PTRES              string          `db:"ptres" json:"ptres"`
	InternalPlan       string          `db:"internal_plan" json:"internal_plan"`
	ExpenseNature      string          `db:"expense_nature" json:"expense_nature"`
	ArrivalDate        time.Time       `db:"arrival_date" json:"arrival_date"`
	CommitmentDeadline time.Time       `db:"commitment_deadline" json:"commitment_deadline"`
	Description        string          `db:"description" json:"description"`
	SectionID          int64           `db:"section_id" json:"section_id"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
}

// Commitment is a claim against one credit note's balance. Value is the
// current value net of reversals; OriginalValue tracks the value the claim
// was created with, shifted by later edits, so the remaining reversible
// value can always be recomputed as OriginalValue minus the sum of
// recorded reversals.
type Commitment struct {
	ID            int64           `db:"id" json:"id"`
	Code          string          `db:"code" json:"code"`
	OriginalValue decimal.Decimal `db:"original_value" json:"original_value"`
	Value         decimal.Decimal `db:"value" json:"value"`
	CommittedAt   time.Time       `db:"committed_at" json:"committed_at"`
	Note          string          `db:"note" json:"note"`
	Annotation    Annotation      `db:"annotation" json:"annotation,omitempty"`
	Informational bool            `db:"informational" json:"informational"`
	CreditNoteID  int64           `db:"credit_note_id" json:"credit_note_id"`
	SectionID     int64           `db:"section_id" json:"section_id"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// Reversal is a partial or total undo of a commitment. Append-only.
type Reversal struct {
	ID           int64           `db:"id" json:"id"`
	CommitmentID int64           `db:"commitment_id" json:"commitment_id"`
	Value        decimal.Decimal `db:"value" json:"value"`
	ReversedAt   time.Time       `db:"reversed_at" json:"reversed_at"`
	Note         string          `db:"note" json:"note"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// Return is a direct reduction of a note's balance outside the commitment
// flow (funds sent back to the treasury). Append-only.
type Return struct {
	ID           int64           `db:"id" json:"id"`
	CreditNoteID int64           `db:"credit_note_id" json:"credit_note_id"`
	Value        decimal.Decimal `db:"value" json:"value"`
	ReturnedAt   time.Time       `db:"returned_at" json:"returned_at"`
	Note         string          `db:"note" json:"note"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// Section is the organizational unit owning notes and requesting
// commitments.
type Section struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// AuditEntry records one accepted mutation. Written in the same
// transaction as the mutation itself.
type AuditEntry struct {
	ID       int64     `db:"id" json:"id"`
	LoggedAt time.Time `db:"logged_at" json:"logged_at"`
	Username string    `db:"username" json:"username"`
	Action   string    `db:"action" json:"action"`
	Details  string    `db:"details" json:"details"`
}

// CreditNoteInput carries every caller-settable field of a credit note.
// Balance and status are engine-owned and deliberately absent.
type CreditNoteInput struct {
	Code               string          `json:"code"`
	Value              decimal.Decimal `json:"value"`
	Sphere             string          `json:"sphere"`
	Source             string          `json:"source"`
	PTRES              string          `json:"ptres"`
	InternalPlan       string          `json:"internal_plan"`
	ExpenseNature      string          `json:"expense_nature"`
	ArrivalDate        time.Time       `json:"arrival_date"`
	CommitmentDeadline time.Time       `json:"commitment_deadline"`
	Description        string          `json:"description"`
	SectionID          int64           `json:"section_id"`
}

// CommitmentInput carries the caller-settable fields of a commitment.
type CommitmentInput struct {
	Code          string          `json:"code"`
	Value         decimal.Decimal `json:"value"`
	CommittedAt   time.Time       `json:"committed_at"`
	Note          string          `json:"note"`
	Informational bool            `json:"informational"`
	CreditNoteID  int64           `json:"credit_note_id"`
	SectionID     int64           `json:"section_id"`
}

// CommitmentUpdate names the fields an edit may change. The annotation and
// the owning note are not among them.
type CommitmentUpdate struct {
	Code          string          `json:"code"`
	Value         decimal.Decimal `json:"value"`
	CommittedAt   time.Time       `json:"committed_at"`
	Note          string          `json:"note"`
	Informational bool            `json:"informational"`
	SectionID     int64           `json:"section_id"`
}

// ReversalInput creates one reversal against a commitment.
type ReversalInput struct {
	CommitmentID int64           `json:"commitment_id"`
	Value        decimal.Decimal `json:"value"`
	ReversedAt   time.Time       `json:"reversed_at"`
	Note         string          `json:"note"`
}

// ReturnInput creates one balance return against a credit note.
type ReturnInput struct {
	CreditNoteID int64           `json:"credit_note_id"`
	Value        decimal.Decimal `json:"value"`
	ReturnedAt   time.Time       `json:"returned_at"`
	Note         string          `json:"note"`
}
