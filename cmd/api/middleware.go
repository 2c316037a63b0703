package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/farxc/credit_ledger/internal/store"
)

type contextKey string

const userContextKey contextKey = "user"

// requireUser authenticates the bearer token and loads the acting user
// into the request context.
func (app *application) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeJSONError(w, http.StatusUnauthorized, "missing or malformed authorization header")
			return
		}

		claims, err := app.tokens.Verify(token)
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeJSONError(w, http.StatusUnauthorized, "invalid credentials, please log in again")
			return
		}

		user, err := app.store.Users.GetByUsername(r.Context(), claims.Subject)
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeJSONError(w, http.StatusUnauthorized, "invalid credentials, please log in again")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin restricts a route to administrator accounts. Must run
// after requireUser.
func (app *application) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		if user == nil || user.Role != store.RoleAdmin {
			writeJSONError(w, http.StatusForbidden, "restricted to administrators")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// currentUser returns the authenticated user placed in the context by
// requireUser, or nil.
func currentUser(r *http.Request) *store.User {
	user, _ := r.Context().Value(userContextKey).(*store.User)
	return user
}
