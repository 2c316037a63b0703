package main

import (
	"errors"
	"net/http"

	"github.com/farxc/credit_ledger/internal/ledger"
)

// ledgerError translates the engine's error taxonomy into a stable HTTP
// status and writes the response. The engine itself is transport-agnostic.
func (app *application) ledgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidState),
		errors.Is(err, ledger.ErrInsufficientBalance):
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ledger.ErrDuplicateIdentifier),
		errors.Is(err, ledger.ErrConflict):
		writeJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrBusy):
		writeJSONError(w, http.StatusServiceUnavailable, "the entity is locked by another operation, retry shortly")
	default:
		app.log.Error("api", "internal error: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}
