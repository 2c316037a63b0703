package main

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/farxc/credit_ledger/internal/ledger"
	"github.com/farxc/credit_ledger/internal/response"
	"github.com/farxc/credit_ledger/internal/store"
)

type commitmentPayload struct {
	Code          string          `json:"code"`
	Value         decimal.Decimal `json:"value"`
	CommittedAt   string          `json:"committed_at"`
	Note          string          `json:"note"`
	Informational bool            `json:"informational"`
	CreditNoteID  int64           `json:"credit_note_id"`
	SectionID     int64           `json:"section_id"`
}

type CommitmentPageResponse = response.APIResponse[response.Paginated[[]store.CommitmentWithRefs]]
type CommitmentDetailResponse = response.APIResponse[*store.CommitmentWithRefs]
type CommitmentResponse = response.APIResponse[*ledger.Commitment]

// @Summary		List commitments
// @Tags			Commitments
// @Produce		json
// @Param			credit_note_id	query		int	false	"owning note"
// @Param			section_id		query		int	false	"requesting section"
// @Param			page			query		int	false	"page number"
// @Param			size			query		int	false	"page size"
// @Success		200				{object}	CommitmentPageResponse
// @Router			/commitments [get]
func (app *application) handleListCommitments(w http.ResponseWriter, r *http.Request) {
	filter := store.CommitmentFilter{
		CreditNoteID: queryInt64(r, "credit_note_id"),
		SectionID:    queryInt64(r, "section_id"),
		Page:         queryInt(r, "page", 1),
		Size:         queryInt(r, "size", store.DefaultPageSize),
	}

	commitments, total, err := app.store.Commitments.List(r.Context(), filter)
	if err != nil {
		app.log.Error("api", "list commitments: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to list commitments")
		return
	}

	resp := &CommitmentPageResponse{
		Success: true,
		Data: response.Paginated[[]store.CommitmentWithRefs]{
			Total:   total,
			Page:    filter.Page,
			Size:    filter.Size,
			Results: commitments,
		},
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Get one commitment
// @Tags			Commitments
// @Produce		json
// @Success		200	{object}	CommitmentDetailResponse
// @Failure		404	{object}	response.ErrorResponse
// @Router			/commitments/{id} [get]
func (app *application) handleGetCommitment(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if id == 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid commitment id")
		return
	}

	commitment, err := app.store.Commitments.GetByID(r.Context(), id)
	if err != nil {
		app.ledgerError(w, err)
		return
	}

	resp := &CommitmentDetailResponse{Success: true, Data: commitment}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Register a commitment against a credit note
// @Tags			Commitments
// @Accept			json
// @Produce		json
// @Success		201	{object}	CommitmentResponse
// @Failure		422	{object}	response.ErrorResponse	"Insufficient balance or inactive note"
// @Router			/commitments [post]
func (app *application) handleCreateCommitment(w http.ResponseWriter, r *http.Request) {
	var payload commitmentPayload
	if err := readJSON(w, r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	committedAt, err := parseTime(payload.CommittedAt)
	if err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, "committed_at must use the YYYY-MM-DD format")
		return
	}

	commitment, err := app.ledger.CreateCommitment(r.Context(), currentUser(r).Username, ledger.CommitmentInput{
		Code:          payload.Code,
		Value:         payload.Value,
		CommittedAt:   committedAt,
		Note:          payload.Note,
		Informational: payload.Informational,
		CreditNoteID:  payload.CreditNoteID,
		SectionID:     payload.SectionID,
	})
	if err != nil {
		app.ledgerError(w, err)
		return
	}

	resp := &CommitmentResponse{Success: true, Message: "commitment registered", Data: commitment}
	if err := writeJSON(w, http.StatusCreated, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Update a commitment
// @Tags			Commitments
// @Accept			json
// @Produce		json
// @Success		200	{object}	CommitmentResponse
// @Failure		404	{object}	response.ErrorResponse
// @Failure		422	{object}	response.ErrorResponse	"Increase exceeds the note's balance"
// @Router			/commitments/{id} [put]
func (app *application) handleUpdateCommitment(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if id == 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid commitment id")
		return
	}

	var payload commitmentPayload
	if err := readJSON(w, r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	committedAt, err := parseTime(payload.CommittedAt)
	if err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, "committed_at must use the YYYY-MM-DD format")
		return
	}

	commitment, err := app.ledger.UpdateCommitment(r.Context(), currentUser(r).Username, id, ledger.CommitmentUpdate{
		Code:          payload.Code,
		Value:         payload.Value,
		CommittedAt:   committedAt,
		Note:          payload.Note,
		Informational: payload.Informational,
		SectionID:     payload.SectionID,
	})
	if err != nil {
		app.ledgerError(w, err)
		return
	}

	resp := &CommitmentResponse{Success: true, Message: "commitment updated", Data: commitment}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Delete a commitment
// @Tags			Commitments
// @Produce		json
// @Success		200	{object}	response.APIResponse[any]
// @Failure		409	{object}	response.ErrorResponse	"Reversals already recorded"
// @Router			/commitments/{id} [delete]
func (app *application) handleDeleteCommitment(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if id == 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid commitment id")
		return
	}

	if err := app.ledger.DeleteCommitment(r.Context(), currentUser(r).Username, id); err != nil {
		app.ledgerError(w, err)
		return
	}

	resp := &response.APIResponse[any]{Success: true, Message: "commitment deleted"}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}
