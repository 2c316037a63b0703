// Package store is the read side of the service: list, filter, and
// aggregate queries over the entities the ledger engine mutates, plus user
// records. Everything here is side-effect free except the user admin
// operations, which carry their own audit entries.
package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/farxc/credit_ledger/internal/ledger"
)

type Storage struct {
	CreditNotes interface {
		List(ctx context.Context, f CreditNoteFilter) ([]CreditNoteWithSection, int, error)
		GetByID(ctx context.Context, id int64) (*CreditNoteWithSection, error)
	}

	Commitments interface {
		List(ctx context.Context, f CommitmentFilter) ([]CommitmentWithRefs, int, error)
		GetByID(ctx context.Context, id int64) (*CommitmentWithRefs, error)
	}

	Movements interface {
		ReversalsByCommitment(ctx context.Context, commitmentID int64) ([]ledger.Reversal, error)
		ReturnsByCreditNote(ctx context.Context, creditNoteID int64) ([]ledger.Return, error)
	}

	Sections interface {
		List(ctx context.Context) ([]ledger.Section, error)
		GetByID(ctx context.Context, id int64) (*ledger.Section, error)
	}

	Users interface {
		Create(ctx context.Context, actor string, u *User) error
		Delete(ctx context.Context, actor string, id int64) error
		List(ctx context.Context) ([]User, error)
		GetByUsername(ctx context.Context, username string) (*User, error)
		GetByID(ctx context.Context, id int64) (*User, error)
	}

	Dashboard interface {
		KPIs(ctx context.Context) (*KPIs, error)
		DeadlineAlerts(ctx context.Context, window int) ([]CreditNoteWithSection, error)
	}

	Audit interface {
		Latest(ctx context.Context, limit, offset int) ([]ledger.AuditEntry, error)
	}
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{
		CreditNotes: &CreditNoteStore{db: db},
		Commitments: &CommitmentStore{db: db},
		Movements:   &MovementStore{db: db},
		Sections:    &SectionStore{db: db},
		Users:       &UserStore{db: db},
		Dashboard:   &DashboardStore{db: db},
		Audit:       &AuditStore{db: db},
	}
}
