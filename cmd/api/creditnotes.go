package main

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/farxc/credit_ledger/internal/ledger"
	"github.com/farxc/credit_ledger/internal/response"
	"github.com/farxc/credit_ledger/internal/store"
)

// creditNotePayload is the wire form of a credit note write. Dates arrive
// as YYYY-MM-DD strings.
type creditNotePayload struct {
	Code               string          `json:"code"`
	Value              decimal.Decimal `json:"value"`
	Sphere             string          `json:"sphere"`
	Source             string          `json:"source"`
	PTRES              string          `json:"ptres"`
	InternalPlan       string          `json:"internal_plan"`
	ExpenseNature      string          `json:"expense_nature"`
	ArrivalDate        string          `json:"arrival_date"`
	CommitmentDeadline string          `json:"commitment_deadline"`
	Description        string          `json:"description"`
	SectionID          int64           `json:"section_id"`
}

func (p *creditNotePayload) toInput() (ledger.CreditNoteInput, error) {
	arrival, err := parseTime(p.ArrivalDate)
	if err != nil {
		return ledger.CreditNoteInput{}, err
	}
	deadline, err := parseTime(p.CommitmentDeadline)
	if err != nil {
		return ledger.CreditNoteInput{}, err
	}
	return ledger.CreditNoteInput{
		Code:               p.Code,
		Value:              p.Value,
		Sphere:             p.Sphere,
		Source:             p.Source,
		PTRES:              p.PTRES,
		InternalPlan:       p.InternalPlan,
		ExpenseNature:      p.ExpenseNature,
		ArrivalDate:        arrival,
		CommitmentDeadline: deadline,
		Description:        p.Description,
		SectionID:          p.SectionID,
	}, nil
}

type CreditNotePageResponse = response.APIResponse[response.Paginated[[]store.CreditNoteWithSection]]
type CreditNoteDetailResponse = response.APIResponse[*store.CreditNoteWithSection]
type CreditNoteResponse = response.APIResponse[*ledger.CreditNote]

// @Summary		List credit notes
// @Tags			CreditNotes
// @Produce		json
// @Param			internal_plan	query		string	false	"partial match"
// @Param			expense_nature	query		string	false	"partial match"
// @Param			section_id		query		int		false	"owning section"
// @Param			status			query		string	false	"active or fully_committed"
// @Param			page			query		int		false	"page number"
// @Param			size			query		int		false	"page size"
// @Success		200				{object}	CreditNotePageResponse
// @Router			/credit-notes [get]
func (app *application) handleListCreditNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.CreditNoteFilter{
		InternalPlan:  q.Get("internal_plan"),
		ExpenseNature: q.Get("expense_nature"),
		SectionID:     queryInt64(r, "section_id"),
		Status:        q.Get("status"),
		Page:          queryInt(r, "page", 1),
		Size:          queryInt(r, "size", store.DefaultPageSize),
	}

	notes, total, err := app.store.CreditNotes.List(r.Context(), filter)
	if err != nil {
		app.log.Error("api", "list credit notes: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to list credit notes")
		return
	}

	resp := &CreditNotePageResponse{
		Success: true,
		Data: response.Paginated[[]store.CreditNoteWithSection]{
			Total:   total,
			Page:    filter.Page,
			Size:    filter.Size,
			Results: notes,
		},
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Get one credit note
// @Tags			CreditNotes
// @Produce		json
// @Success		200	{object}	CreditNoteDetailResponse
// @Failure		404	{object}	response.ErrorResponse
// @Router			/credit-notes/{id} [get]
func (app *application) handleGetCreditNote(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if id == 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid credit note id")
		return
	}

	note, err := app.store.CreditNotes.GetByID(r.Context(), id)
	if err != nil {
		app.ledgerError(w, err)
		return
	}

	resp := &CreditNoteDetailResponse{Success: true, Data: note}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Register a credit note
// @Tags			CreditNotes
// @Accept			json
// @Produce		json
// @Success		201	{object}	CreditNoteResponse
// @Failure		409	{object}	response.ErrorResponse	"Code already registered"
// @Failure		422	{object}	response.ErrorResponse	"Invalid value or dates"
// @Router			/credit-notes [post]
func (app *application) handleCreateCreditNote(w http.ResponseWriter, r *http.Request) {
	var payload creditNotePayload
	if err := readJSON(w, r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	input, err := payload.toInput()
	if err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, "dates must use the YYYY-MM-DD format")
		return
	}

	note, err := app.ledger.CreateCreditNote(r.Context(), currentUser(r).Username, input)
	if err != nil {
		app.ledgerError(w, err)
		return
	}

	resp := &CreditNoteResponse{Success: true, Message: "credit note registered", Data: note}
	if err := writeJSON(w, http.StatusCreated, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Update a credit note
// @Tags			CreditNotes
// @Accept			json
// @Produce		json
// @Success		200	{object}	CreditNoteResponse
// @Failure		404	{object}	response.ErrorResponse
// @Failure		422	{object}	response.ErrorResponse	"New value below the amount already consumed"
// @Router			/credit-notes/{id} [put]
func (app *application) handleUpdateCreditNote(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if id == 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid credit note id")
		return
	}

	var payload creditNotePayload
	if err := readJSON(w, r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	input, err := payload.toInput()
	if err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, "dates must use the YYYY-MM-DD format")
		return
	}

	note, err := app.ledger.UpdateCreditNote(r.Context(), currentUser(r).Username, id, input)
	if err != nil {
		app.ledgerError(w, err)
		return
	}

	resp := &CreditNoteResponse{Success: true, Message: "credit note updated", Data: note}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Delete a credit note
// @Tags			CreditNotes
// @Produce		json
// @Success		200	{object}	response.APIResponse[any]
// @Failure		409	{object}	response.ErrorResponse	"Commitments still attached"
// @Router			/credit-notes/{id} [delete]
func (app *application) handleDeleteCreditNote(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if id == 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid credit note id")
		return
	}

	if err := app.ledger.DeleteCreditNote(r.Context(), currentUser(r).Username, id); err != nil {
		app.ledgerError(w, err)
		return
	}

	resp := &response.APIResponse[any]{Success: true, Message: "credit note deleted"}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}
