package main

import (
	"net/http"
	"strings"

	"github.com/farxc/credit_ledger/internal/auth"
	"github.com/farxc/credit_ledger/internal/response"
	"github.com/farxc/credit_ledger/internal/store"
)

type UserListResponse = response.APIResponse[[]store.User]
type UserResponse = response.APIResponse[*store.User]

// @Summary		List accounts
// @Tags			Users
// @Produce		json
// @Success		200	{object}	UserListResponse
// @Router			/users [get]
func (app *application) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := app.store.Users.List(r.Context())
	if err != nil {
		app.log.Error("api", "list users: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	resp := &UserListResponse{Success: true, Data: users}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Create an account
// @Tags			Users
// @Accept			json
// @Produce		json
// @Success		201	{object}	UserResponse
// @Failure		409	{object}	response.ErrorResponse	"Username or email already in use"
// @Failure		422	{object}	response.ErrorResponse	"Weak password"
// @Router			/users [post]
func (app *application) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := readJSON(w, r, &input); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	input.Username = strings.TrimSpace(input.Username)
	if input.Username == "" || input.Email == "" {
		writeJSONError(w, http.StatusUnprocessableEntity, "username and email are required")
		return
	}
	if err := auth.ValidatePassword(input.Password); err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	role := store.Role(input.Role)
	if role == "" {
		role = store.RoleOperator
	}
	if role != store.RoleOperator && role != store.RoleAdmin {
		writeJSONError(w, http.StatusUnprocessableEntity, "role must be operator or admin")
		return
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		app.log.Error("api", "hash password: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	user := &store.User{
		Username:       input.Username,
		Email:          input.Email,
		HashedPassword: hash,
		Role:           role,
	}
	if err := app.store.Users.Create(r.Context(), currentUser(r).Username, user); err != nil {
		app.ledgerError(w, err)
		return
	}

	resp := &UserResponse{Success: true, Message: "user created", Data: user}
	if err := writeJSON(w, http.StatusCreated, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Delete an account
// @Tags			Users
// @Produce		json
// @Success		200	{object}	response.APIResponse[any]
// @Failure		422	{object}	response.ErrorResponse	"Cannot delete own account"
// @Router			/users/{id} [delete]
func (app *application) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if id == 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	actor := currentUser(r)
	if actor.ID == id {
		writeJSONError(w, http.StatusUnprocessableEntity, "cannot delete the account you are logged in with")
		return
	}

	if err := app.store.Users.Delete(r.Context(), actor.Username, id); err != nil {
		app.ledgerError(w, err)
		return
	}

	resp := &response.APIResponse[any]{Success: true, Message: "user deleted"}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}
