package main

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/farxc/credit_ledger/internal/ledger"
	"github.com/farxc/credit_ledger/internal/response"
)

type ReversalListResponse = response.APIResponse[[]ledger.Reversal]
type ReversalResponse = response.APIResponse[*ledger.Reversal]
type ReturnListResponse = response.APIResponse[[]ledger.Return]
type ReturnResponse = response.APIResponse[*ledger.Return]

// @Summary		List the reversals of a commitment
// @Tags			Movements
// @Produce		json
// @Param			commitment_id	query		int	true	"commitment"
// @Success		200				{object}	ReversalListResponse
// @Router			/reversals [get]
func (app *application) handleListReversals(w http.ResponseWriter, r *http.Request) {
	commitmentID := queryInt64(r, "commitment_id")
	if commitmentID == 0 {
		writeJSONError(w, http.StatusBadRequest, "commitment_id is required")
		return
	}

	reversals, err := app.store.Movements.ReversalsByCommitment(r.Context(), commitmentID)
	if err != nil {
		app.log.Error("api", "list reversals: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to list reversals")
		return
	}

	resp := &ReversalListResponse{Success: true, Data: reversals}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Reverse part or all of a commitment
// @Tags			Movements
// @Accept			json
// @Produce		json
// @Success		201	{object}	ReversalResponse
// @Failure		422	{object}	response.ErrorResponse	"Value exceeds the remaining reversible amount"
// @Router			/reversals [post]
func (app *application) handleCreateReversal(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CommitmentID int64           `json:"commitment_id"`
		Value        decimal.Decimal `json:"value"`
		ReversedAt   string          `json:"reversed_at"`
		Note         string          `json:"note"`
	}
	if err := readJSON(w, r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	reversedAt, err := parseTime(payload.ReversedAt)
	if err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, "reversed_at must use the YYYY-MM-DD format")
		return
	}

	reversal, err := app.ledger.CreateReversal(r.Context(), currentUser(r).Username, ledger.ReversalInput{
		CommitmentID: payload.CommitmentID,
		Value:        payload.Value,
		ReversedAt:   reversedAt,
		Note:         payload.Note,
	})
	if err != nil {
		app.ledgerError(w, err)
		return
	}

	resp := &ReversalResponse{Success: true, Message: "reversal recorded", Data: reversal}
	if err := writeJSON(w, http.StatusCreated, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		List the balance returns of a credit note
// @Tags			Movements
// @Produce		json
// @Param			credit_note_id	query		int	true	"credit note"
// @Success		200				{object}	ReturnListResponse
// @Router			/returns [get]
func (app *application) handleListReturns(w http.ResponseWriter, r *http.Request) {
	creditNoteID := queryInt64(r, "credit_note_id")
	if creditNoteID == 0 {
		writeJSONError(w, http.StatusBadRequest, "credit_note_id is required")
		return
	}

	returns, err := app.store.Movements.ReturnsByCreditNote(r.Context(), creditNoteID)
	if err != nil {
		app.log.Error("api", "list returns: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to list returns")
		return
	}

	resp := &ReturnListResponse{Success: true, Data: returns}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Return part of a credit note's balance to the treasury
// @Tags			Movements
// @Accept			json
// @Produce		json
// @Success		201	{object}	ReturnResponse
// @Failure		422	{object}	response.ErrorResponse	"Value exceeds the available balance"
// @Router			/returns [post]
func (app *application) handleCreateReturn(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CreditNoteID int64           `json:"credit_note_id"`
		Value        decimal.Decimal `json:"value"`
		ReturnedAt   string          `json:"returned_at"`
		Note         string          `json:"note"`
	}
	if err := readJSON(w, r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	returnedAt, err := parseTime(payload.ReturnedAt)
	if err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, "returned_at must use the YYYY-MM-DD format")
		return
	}

	ret, err := app.ledger.CreateReturn(r.Context(), currentUser(r).Username, ledger.ReturnInput{
		CreditNoteID: payload.CreditNoteID,
		Value:        payload.Value,
		ReturnedAt:   returnedAt,
		Note:         payload.Note,
	})
	if err != nil {
		app.ledgerError(w, err)
		return
	}

	resp := &ReturnResponse{Success: true, Message: "return recorded", Data: ret}
	if err := writeJSON(w, http.StatusCreated, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}
