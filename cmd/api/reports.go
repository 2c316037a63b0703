package main

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-gota/gota/dataframe"
	"golang.org/x/text/encoding/charmap"

	"github.com/farxc/credit_ledger/internal/ledger"
	"github.com/farxc/credit_ledger/internal/store"
)

// creditNoteReportRow is one flat CSV line of the export. Spreadsheet
// tooling downstream expects these exact column names.
type creditNoteReportRow struct {
	Code               string  `dataframe:"code"`
	Section            string  `dataframe:"section"`
	Value              float64 `dataframe:"value"`
	AvailableBalance   float64 `dataframe:"available_balance"`
	Status             string  `dataframe:"status"`
	Sphere             string  `dataframe:"sphere"`
	Source             string  `dataframe:"source"`
	PTRES              string  `dataframe:"ptres"`
	InternalPlan       string  `dataframe:"internal_plan"`
	ExpenseNature      string  `dataframe:"expense_nature"`
	ArrivalDate        string  `dataframe:"arrival_date"`
	CommitmentDeadline string  `dataframe:"commitment_deadline"`
}

// @Summary		Export the credit notes as CSV
// @Tags			Reports
// @Produce		text/csv
// @Param			section_id	query	int		false	"owning section"
// @Param			status		query	string	false	"active or fully_committed"
// @Param			encoding	query	string	false	"utf8 (default) or windows1252"
// @Success		200
// @Router			/reports/credit-notes.csv [get]
func (app *application) handleCreditNotesReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.CreditNoteFilter{
		InternalPlan:  q.Get("internal_plan"),
		ExpenseNature: q.Get("expense_nature"),
		SectionID:     queryInt64(r, "section_id"),
		Status:        q.Get("status"),
		Page:          1,
		Size:          store.MaxPageSize,
	}

	notes, _, err := app.store.CreditNotes.List(r.Context(), filter)
	if err != nil {
		app.log.Error("api", "report query: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	rows := make([]creditNoteReportRow, 0, len(notes))
	for _, n := range notes {
		value, _ := n.Value.Float64()
		balance, _ := n.AvailableBalance.Float64()
		rows = append(rows, creditNoteReportRow{
			Code:               n.Code,
			Section:            n.SectionName,
			Value:              value,
			AvailableBalance:   balance,
			Status:             string(n.Status),
			Sphere:             n.Sphere,
			Source:             n.Source,
			PTRES:              n.PTRES,
			InternalPlan:       n.InternalPlan,
			ExpenseNature:      n.ExpenseNature,
			ArrivalDate:        n.ArrivalDate.Format("2006-01-02"),
			CommitmentDeadline: n.CommitmentDeadline.Format("2006-01-02"),
		})
	}
	filename := fmt.Sprintf("credit-notes-%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	var out io.Writer = w
	switch q.Get("encoding") {
	case "", "utf8":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	case "windows1252":
		// Older spreadsheet installs at the office still open CSVs as
		// Windows-1252.
		w.Header().Set("Content-Type", "text/csv; charset=windows-1252")
		out = charmap.Windows1252.NewEncoder().Writer(w)
	default:
		writeJSONError(w, http.StatusBadRequest, "encoding must be utf8 or windows1252")
		return
	}

	if len(rows) == 0 {
		// A dataframe cannot be built from zero rows; an empty report is
		// just the header line.
		fmt.Fprintln(out, "code,section,value,available_balance,status,sphere,source,ptres,internal_plan,expense_nature,arrival_date,commitment_deadline")
	} else {
		df := dataframe.LoadStructs(rows)
		if df.Error() != nil {
			app.log.Error("api", "report dataframe: %v", df.Error())
			return
		}
		if err := df.WriteCSV(out); err != nil {
			app.log.Error("api", "report write: %v", err)
			return
		}
	}

	user := currentUser(r)
	details := fmt.Sprintf("credit notes csv, %d rows", len(rows))
	if err := app.ledger.RecordAudit(r.Context(), user.Username, ledger.ActionReportGenerated, details); err != nil {
		app.log.Error("api", "audit report: %v", err)
	}
}
