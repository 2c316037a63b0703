package main

import (
	"net/http"

	"github.com/farxc/credit_ledger/internal/auth"
	"github.com/farxc/credit_ledger/internal/ledger"
	"github.com/farxc/credit_ledger/internal/response"
	"github.com/farxc/credit_ledger/internal/store"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// @Summary		Authenticate and obtain an access token
// @Tags			Auth
// @Accept			json
// @Produce		json
// @Success		200	{object}	tokenResponse
// @Failure		401	{object}	response.ErrorResponse	"Wrong username or password"
// @Router			/token [post]
func (app *application) handleLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &input); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	ctx := r.Context()
	user, err := app.store.Users.GetByUsername(ctx, input.Username)
	if err != nil || auth.VerifyPassword(user.HashedPassword, input.Password) != nil {
		if err := app.ledger.RecordAudit(ctx, input.Username, ledger.ActionLoginFailed,
			"login attempt with wrong credentials"); err != nil {
			app.log.Error("api", "audit login failure: %v", err)
		}
		writeJSONError(w, http.StatusUnauthorized, "wrong username or password")
		return
	}

	token, err := app.tokens.Issue(user.Username, string(user.Role))
	if err != nil {
		app.log.Error("api", "issue token: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	if err := app.ledger.RecordAudit(ctx, user.Username, ledger.ActionLoginSuccess, ""); err != nil {
		app.log.Error("api", "audit login: %v", err)
	}

	if err := writeJSON(w, http.StatusOK, &tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	}); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

type CurrentUserResponse = response.APIResponse[*store.User]

// @Summary		Return the authenticated user
// @Tags			Auth
// @Produce		json
// @Success		200	{object}	CurrentUserResponse
// @Router			/users/me [get]
func (app *application) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	resp := &CurrentUserResponse{
		Success: true,
		Data:    currentUser(r),
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}
