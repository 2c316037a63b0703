package main

import (
	"net/http"
	"strings"

	"github.com/farxc/credit_ledger/internal/ledger"
	"github.com/farxc/credit_ledger/internal/response"
)

type SectionListResponse = response.APIResponse[[]ledger.Section]
type SectionResponse = response.APIResponse[*ledger.Section]

// @Summary		List sections
// @Tags			Sections
// @Produce		json
// @Success		200	{object}	SectionListResponse
// @Router			/sections [get]
func (app *application) handleListSections(w http.ResponseWriter, r *http.Request) {
	sections, err := app.store.Sections.List(r.Context())
	if err != nil {
		app.log.Error("api", "list sections: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to list sections")
		return
	}

	resp := &SectionListResponse{Success: true, Data: sections}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Create a section
// @Tags			Sections
// @Accept			json
// @Produce		json
// @Success		201	{object}	SectionResponse
// @Failure		409	{object}	response.ErrorResponse	"Name already in use"
// @Router			/sections [post]
func (app *application) handleCreateSection(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name string `json:"name"`
	}
	if err := readJSON(w, r, &input); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		writeJSONError(w, http.StatusUnprocessableEntity, "section name is required")
		return
	}

	section, err := app.ledger.CreateSection(r.Context(), currentUser(r).Username, input.Name)
	if err != nil {
		app.ledgerError(w, err)
		return
	}

	resp := &SectionResponse{Success: true, Message: "section created", Data: section}
	if err := writeJSON(w, http.StatusCreated, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Rename a section
// @Tags			Sections
// @Accept			json
// @Produce		json
// @Success		200	{object}	SectionResponse
// @Failure		404	{object}	response.ErrorResponse
// @Router			/sections/{id} [put]
func (app *application) handleRenameSection(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if id == 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid section id")
		return
	}

	var input struct {
		Name string `json:"name"`
	}
	if err := readJSON(w, r, &input); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		writeJSONError(w, http.StatusUnprocessableEntity, "section name is required")
		return
	}

	section, err := app.ledger.RenameSection(r.Context(), currentUser(r).Username, id, input.Name)
	if err != nil {
		app.ledgerError(w, err)
		return
	}

	resp := &SectionResponse{Success: true, Message: "section updated", Data: section}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Delete a section
// @Tags			Sections
// @Produce		json
// @Success		200	{object}	response.APIResponse[any]
// @Failure		409	{object}	response.ErrorResponse	"Section still referenced"
// @Router			/sections/{id} [delete]
func (app *application) handleDeleteSection(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if id == 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid section id")
		return
	}

	if err := app.ledger.DeleteSection(r.Context(), currentUser(r).Username, id); err != nil {
		app.ledgerError(w, err)
		return
	}

	resp := &response.APIResponse[any]{Success: true, Message: "section deleted"}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}
