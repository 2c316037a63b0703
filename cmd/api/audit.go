package main

import (
	"net/http"

	"github.com/farxc/credit_ledger/internal/ledger"
	"github.com/farxc/credit_ledger/internal/response"
)

type AuditListResponse = response.APIResponse[[]ledger.AuditEntry]

// @Summary		Latest audit entries
// @Tags			Audit
// @Produce		json
// @Param			limit	query		int	false	"max entries, default 100"
// @Param			offset	query		int	false	"entries to skip"
// @Success		200		{object}	AuditListResponse
// @Router			/audit-logs [get]
func (app *application) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)
	offset := queryInt(r, "offset", 0)

	entries, err := app.store.Audit.Latest(r.Context(), limit, offset)
	if err != nil {
		app.log.Error("api", "list audit logs: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to list audit logs")
		return
	}

	resp := &AuditListResponse{Success: true, Data: entries}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}
