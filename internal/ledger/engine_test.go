package ledger

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farxc/credit_ledger/internal/db"
	"github.com/farxc/credit_ledger/internal/logger"
)

// testEngine connects to the database named by TEST_DB_ADDR, migrates it,
// and wipes the ledger tables. Tests that need Postgres are skipped when
// the variable is unset.
func testEngine(t *testing.T) (*Engine, *sqlx.DB) {
	t.Helper()

	addr := os.Getenv("TEST_DB_ADDR")
	if addr == "" {
		t.Skip("TEST_DB_ADDR not set, skipping database tests")
	}

	require.NoError(t, db.Migrate(addr))

	conn, err := sqlx.Open("postgres", addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	_, err = conn.Exec(`TRUNCATE audit_logs, returns, reversals, commitments,
		credit_notes, sections, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return NewEngine(conn, logger.New(logger.LevelError)), conn
}

func testSection(t *testing.T, e *Engine, name string) *Section {
	t.Helper()
	s, err := e.CreateSection(context.Background(), "tester", name)
	require.NoError(t, err)
	return s
}

func noteInput(code, value string, sectionID int64) CreditNoteInput {
	arrival := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	return CreditNoteInput{
		Code:               code,
		Value:              dec(value),
		Sphere:             "federal",
		Source:             "0100",
		PTRES:              "168988",
		InternalPlan:       "ADESTRAMENTO",
		ExpenseNature:      "339030",
		ArrivalDate:        arrival,
		CommitmentDeadline: arrival.AddDate(0, 3, 0),
		Description:        "test allocation",
		SectionID:          sectionID,
	}
}

func commitmentInput(code, value string, noteID, sectionID int64) CommitmentInput {
	return CommitmentInput{
		Code:         code,
		Value:        dec(value),
		CommittedAt:  time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC),
		CreditNoteID: noteID,
		SectionID:    sectionID,
	}
}

func requireConserved(t *testing.T, e *Engine, noteID int64) {
	t.Helper()
	gap, err := e.ConservationGap(context.Background(), noteID)
	require.NoError(t, err)
	assert.True(t, gap.IsZero(), "conservation gap %s on note %d", gap.String(), noteID)
}

func TestCreditNoteLifecycle(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()
	section := testSection(t, e, "SALC")

	nc, err := e.CreateCreditNote(ctx, "tester", noteInput("2024NC000001", "1000.00", section.ID))
	require.NoError(t, err)
	assert.True(t, nc.AvailableBalance.Equal(dec("1000.00")))
	assert.Equal(t, StatusActive, nc.Status)

	c, err := e.CreateCommitment(ctx, "tester", commitmentInput("2024NE000001", "600.00", nc.ID, section.ID))
	require.NoError(t, err)
	assert.True(t, c.Value.Equal(dec("600.00")))
	assert.True(t, c.OriginalValue.Equal(dec("600.00")))
	requireConserved(t, e, nc.ID)

	rev, err := e.CreateReversal(ctx, "tester", ReversalInput{
		CommitmentID: c.ID,
		Value:        dec("200.00"),
		ReversedAt:   time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, rev.Value.Equal(dec("200.00")))
	requireConserved(t, e, nc.ID)

	ret, err := e.CreateReturn(ctx, "tester", ReturnInput{
		CreditNoteID: nc.ID,
		Value:        dec("100.00"),
		ReturnedAt:   time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, ret.Value.Equal(dec("100.00")))
	requireConserved(t, e, nc.ID)

	// 1000 - 600 + 200 - 100 = 500
	reloaded, err := reloadNote(e, nc.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.AvailableBalance.Equal(dec("500.00")),
		"balance is %s", reloaded.AvailableBalance.String())
	assert.Equal(t, StatusActive, reloaded.Status)

	commitment, err := reloadCommitment(e, c.ID)
	require.NoError(t, err)
	assert.True(t, commitment.Value.Equal(dec("400.00")))
	assert.Equal(t, AnnotationPartiallyReversed, commitment.Annotation)
}

func reloadNote(e *Engine, id int64) (*CreditNote, error) {
	var nc CreditNote
	err := e.db.Get(&nc, `
		SELECT id, code, value, available_balance, status, sphere, source,
		       ptres, internal_plan, expense_nature, arrival_date,
		       commitment_deadline, description, section_id, created_at, updated_at
		FROM credit_notes WHERE id = $1`, id)
	return &nc, err
}

func reloadCommitment(e *Engine, id int64) (*Commitment, error) {
	var c Commitment
	err := e.db.Get(&c, `
		SELECT id, code, original_value, value, committed_at, note, annotation,
		       informational, credit_note_id, section_id, created_at, updated_at
		FROM commitments WHERE id = $1`, id)
	return &c, err
}

func TestCommitmentInsufficientBalance(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()
	section := testSection(t, e, "SALC")

	nc, err := e.CreateCreditNote(ctx, "tester", noteInput("2024NC000002", "500.00", section.ID))
	require.NoError(t, err)

	_, err = e.CreateCommitment(ctx, "tester", commitmentInput("2024NE000002", "500.01", nc.ID, section.ID))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// The failed attempt left nothing behind.
	reloaded, err := reloadNote(e, nc.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.AvailableBalance.Equal(dec("500.00")))
	requireConserved(t, e, nc.ID)
}

func TestCommitmentAgainstFullyCommittedNote(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()
	section := testSection(t, e, "SALC")

	nc, err := e.CreateCreditNote(ctx, "tester", noteInput("2024NC000003", "300.00", section.ID))
	require.NoError(t, err)

	_, err = e.CreateCommitment(ctx, "tester", commitmentInput("2024NE000003", "300.00", nc.ID, section.ID))
	require.NoError(t, err)

	reloaded, err := reloadNote(e, nc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFullyCommitted, reloaded.Status)
	assert.True(t, reloaded.AvailableBalance.IsZero())

	_, err = e.CreateCommitment(ctx, "tester", commitmentInput("2024NE000004", "0.01", nc.ID, section.ID))
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestReversalReactivatesNote(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()
	section := testSection(t, e, "SALC")

	nc, err := e.CreateCreditNote(ctx, "tester", noteInput("2024NC000004", "300.00", section.ID))
	require.NoError(t, err)
	c, err := e.CreateCommitment(ctx, "tester", commitmentInput("2024NE000005", "300.00", nc.ID, section.ID))
	require.NoError(t, err)

	_, err = e.CreateReversal(ctx, "tester", ReversalInput{
		CommitmentID: c.ID, Value: dec("300.00"),
		ReversedAt: time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	reloaded, err := reloadNote(e, nc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, reloaded.Status)
	assert.True(t, reloaded.AvailableBalance.Equal(dec("300.00")))

	commitment, err := reloadCommitment(e, c.ID)
	require.NoError(t, err)
	assert.True(t, commitment.Value.IsZero())
	assert.Equal(t, AnnotationFullyReversed, commitment.Annotation)
	requireConserved(t, e, nc.ID)
}

func TestReversalExceedingRemaining(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()
	section := testSection(t, e, "SALC")

	nc, err := e.CreateCreditNote(ctx, "tester", noteInput("2024NC000005", "500.00", section.ID))
	require.NoError(t, err)
	c, err := e.CreateCommitment(ctx, "tester", commitmentInput("2024NE000006", "200.00", nc.ID, section.ID))
	require.NoError(t, err)

	_, err = e.CreateReversal(ctx, "tester", ReversalInput{
		CommitmentID: c.ID, Value: dec("150.00"),
		ReversedAt: time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	// Only 50 remains reversible.
	_, err = e.CreateReversal(ctx, "tester", ReversalInput{
		CommitmentID: c.ID, Value: dec("50.01"),
		ReversedAt: time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)
	requireConserved(t, e, nc.ID)
}

func TestReturnExceedingBalance(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()
	section := testSection(t, e, "SALC")

	nc, err := e.CreateCreditNote(ctx, "tester", noteInput("2024NC000006", "100.00", section.ID))
	require.NoError(t, err)

	_, err = e.CreateReturn(ctx, "tester", ReturnInput{
		CreditNoteID: nc.ID, Value: dec("100.01"),
		ReturnedAt: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestDuplicateCreditNoteCode(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()
	section := testSection(t, e, "SALC")

	_, err := e.CreateCreditNote(ctx, "tester", noteInput("2024NC000007", "100.00", section.ID))
	require.NoError(t, err)

	_, err = e.CreateCreditNote(ctx, "tester", noteInput("2024NC000007", "200.00", section.ID))
	assert.ErrorIs(t, err, ErrDuplicateIdentifier)
}

func TestUpdateCreditNoteBelowConsumed(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()
	section := testSection(t, e, "SALC")

	nc, err := e.CreateCreditNote(ctx, "tester", noteInput("2024NC000008", "1000.00", section.ID))
	require.NoError(t, err)
	_, err = e.CreateCommitment(ctx, "tester", commitmentInput("2024NE000007", "700.00", nc.ID, section.ID))
	require.NoError(t, err)

	shrunk := noteInput("2024NC000008", "600.00", section.ID)
	_, err = e.UpdateCreditNote(ctx, "tester", nc.ID, shrunk)
	assert.ErrorIs(t, err, ErrInvalidState)

	// Shrinking down to exactly the consumed amount is allowed and leaves
	// the note fully committed.
	exact := noteInput("2024NC000008", "700.00", section.ID)
	updated, err := e.UpdateCreditNote(ctx, "tester", nc.ID, exact)
	require.NoError(t, err)
	assert.True(t, updated.AvailableBalance.IsZero())
	assert.Equal(t, StatusFullyCommitted, updated.Status)
	requireConserved(t, e, nc.ID)
}

func TestUpdateCommitmentAppliesDelta(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()
	section := testSection(t, e, "SALC")

	nc, err := e.CreateCreditNote(ctx, "tester", noteInput("2024NC000009", "1000.00", section.ID))
	require.NoError(t, err)
	c, err := e.CreateCommitment(ctx, "tester", commitmentInput("2024NE000008", "300.00", nc.ID, section.ID))
	require.NoError(t, err)

	grow := CommitmentUpdate{
		Code: c.Code, Value: dec("500.00"), CommittedAt: c.CommittedAt,
		SectionID: section.ID,
	}
	updated, err := e.UpdateCommitment(ctx, "tester", c.ID, grow)
	require.NoError(t, err)
	assert.True(t, updated.Value.Equal(dec("500.00")))
	assert.True(t, updated.OriginalValue.Equal(dec("500.00")))

	reloaded, err := reloadNote(e, nc.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.AvailableBalance.Equal(dec("500.00")))
	requireConserved(t, e, nc.ID)

	// Growing past the note's remaining balance is refused.
	tooBig := CommitmentUpdate{
		Code: c.Code, Value: dec("1000.01"), CommittedAt: c.CommittedAt,
		SectionID: section.ID,
	}
	_, err = e.UpdateCommitment(ctx, "tester", c.ID, tooBig)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	shrink := CommitmentUpdate{
		Code: c.Code, Value: dec("100.00"), CommittedAt: c.CommittedAt,
		SectionID: section.ID,
	}
	updated, err = e.UpdateCommitment(ctx, "tester", c.ID, shrink)
	require.NoError(t, err)
	assert.True(t, updated.Value.Equal(dec("100.00")))

	reloaded, err = reloadNote(e, nc.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.AvailableBalance.Equal(dec("900.00")))
	requireConserved(t, e, nc.ID)
}

func TestDeletionGuards(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()
	section := testSection(t, e, "SALC")

	nc, err := e.CreateCreditNote(ctx, "tester", noteInput("2024NC000010", "500.00", section.ID))
	require.NoError(t, err)
	c, err := e.CreateCommitment(ctx, "tester", commitmentInput("2024NE000009", "200.00", nc.ID, section.ID))
	require.NoError(t, err)

	// A note with commitments cannot go.
	assert.ErrorIs(t, e.DeleteCreditNote(ctx, "tester", nc.ID), ErrConflict)

	// Neither can a section still referenced.
	assert.ErrorIs(t, e.DeleteSection(ctx, "tester", section.ID), ErrConflict)

	_, err = e.CreateReversal(ctx, "tester", ReversalInput{
		CommitmentID: c.ID, Value: dec("50.00"),
		ReversedAt: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	// A commitment with reversals cannot go either.
	assert.ErrorIs(t, e.DeleteCommitment(ctx, "tester", c.ID), ErrConflict)
}

func TestDeleteCommitmentRestoresBalance(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()
	section := testSection(t, e, "SALC")

	nc, err := e.CreateCreditNote(ctx, "tester", noteInput("2024NC000011", "500.00", section.ID))
	require.NoError(t, err)
	c, err := e.CreateCommitment(ctx, "tester", commitmentInput("2024NE000010", "200.00", nc.ID, section.ID))
	require.NoError(t, err)

	require.NoError(t, e.DeleteCommitment(ctx, "tester", c.ID))

	reloaded, err := reloadNote(e, nc.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.AvailableBalance.Equal(dec("500.00")))
	assert.Equal(t, StatusActive, reloaded.Status)
	requireConserved(t, e, nc.ID)
}

func TestConcurrentCommitmentsNeverOverspend(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()
	section := testSection(t, e, "SALC")

	nc, err := e.CreateCreditNote(ctx, "tester", noteInput("2024NC000012", "1000.00", section.ID))
	require.NoError(t, err)

	// Two concurrent claims of 600 against 1000. Exactly one can win.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	codes := []string{"2024NE000011", "2024NE000012"}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.CreateCommitment(ctx, "tester",
				commitmentInput(codes[i], "600.00", nc.ID, section.ID))
		}(i)
	}
	wg.Wait()

	var wins, rejections int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		default:
			require.ErrorIs(t, err, ErrInsufficientBalance)
			rejections++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, rejections)

	reloaded, err := reloadNote(e, nc.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.AvailableBalance.Equal(dec("400.00")))
	requireConserved(t, e, nc.ID)
}

func TestMutationsWriteAuditEntries(t *testing.T) {
	e, conn := testEngine(t)
	ctx := context.Background()
	section, err := e.CreateSection(ctx, "maria", "SALC")
	require.NoError(t, err)

	nc, err := e.CreateCreditNote(ctx, "maria", noteInput("2024NC000013", "100.00", section.ID))
	require.NoError(t, err)
	_, err = e.CreateCommitment(ctx, "maria", commitmentInput("2024NE000013", "40.00", nc.ID, section.ID))
	require.NoError(t, err)

	var actions []string
	require.NoError(t, conn.Select(&actions,
		`SELECT action FROM audit_logs WHERE username = 'maria' ORDER BY id`))
	assert.Equal(t, []string{
		ActionSectionCreated, ActionNoteCreated, ActionCommitmentCreated,
	}, actions)
}

func TestRejectedMutationLeavesNoAudit(t *testing.T) {
	e, conn := testEngine(t)
	ctx := context.Background()
	section := testSection(t, e, "SALC")

	nc, err := e.CreateCreditNote(ctx, "tester", noteInput("2024NC000014", "100.00", section.ID))
	require.NoError(t, err)

	_, err = e.CreateCommitment(ctx, "tester", commitmentInput("2024NE000014", "200.00", nc.ID, section.ID))
	require.ErrorIs(t, err, ErrInsufficientBalance)

	var count int
	require.NoError(t, conn.Get(&count,
		`SELECT count(*) FROM audit_logs WHERE action = $1`, ActionCommitmentCreated))
	assert.Zero(t, count)
}
