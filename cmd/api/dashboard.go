package main

import (
	"net/http"

	"github.com/farxc/credit_ledger/internal/response"
	"github.com/farxc/credit_ledger/internal/store"
)

type KPIResponse = response.APIResponse[*store.KPIs]
type AlertResponse = response.APIResponse[[]store.CreditNoteWithSection]

// @Summary		Dashboard headline numbers
// @Tags			Dashboard
// @Produce		json
// @Success		200	{object}	KPIResponse
// @Router			/dashboard/kpis [get]
func (app *application) handleDashboardKPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := app.store.Dashboard.KPIs(r.Context())
	if err != nil {
		app.log.Error("api", "dashboard kpis: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to compute kpis")
		return
	}

	resp := &KPIResponse{Success: true, Data: kpis}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Notes whose commitment deadline is close
// @Tags			Dashboard
// @Produce		json
// @Success		200	{object}	AlertResponse
// @Router			/dashboard/alerts [get]
func (app *application) handleDashboardAlerts(w http.ResponseWriter, r *http.Request) {
	notes, err := app.store.Dashboard.DeadlineAlerts(r.Context(), deadlineAlertWindow)
	if err != nil {
		app.log.Error("api", "dashboard alerts: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to compute deadline alerts")
		return
	}

	resp := &AlertResponse{Success: true, Data: notes}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}
