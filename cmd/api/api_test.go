package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farxc/credit_ledger/internal/auth"
	"github.com/farxc/credit_ledger/internal/ledger"
	"github.com/farxc/credit_ledger/internal/logger"
	"github.com/farxc/credit_ledger/internal/response"
	"github.com/farxc/credit_ledger/internal/store"
)

func testApp(t *testing.T) *application {
	t.Helper()
	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	return &application{
		tokens: tokens,
		log:    logger.New(logger.LevelError),
	}
}

func TestLedgerErrorMapping(t *testing.T) {
	app := testApp(t)

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", &ledger.NotFoundError{Entity: "credit note", ID: 9}, http.StatusNotFound},
		{"invalid amount", &ledger.InvalidAmountError{Reason: "value must be positive"}, http.StatusUnprocessableEntity},
		{"invalid state", ledger.ErrInvalidState, http.StatusUnprocessableEntity},
		{"insufficient balance", &ledger.InsufficientBalanceError{Entity: "credit note"}, http.StatusUnprocessableEntity},
		{"duplicate", ledger.ErrDuplicateIdentifier, http.StatusConflict},
		{"conflict", &ledger.ConflictError{Entity: "section"}, http.StatusConflict},
		{"busy", ledger.ErrBusy, http.StatusServiceUnavailable},
		{"unclassified", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			app.ledgerError(rec, tt.err)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var body response.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

// stubUserStore satisfies the Users interface with a fixed account.
type stubUserStore struct {
	user *store.User
}

func (s *stubUserStore) Create(ctx context.Context, actor string, u *store.User) error { return nil }
func (s *stubUserStore) Delete(ctx context.Context, actor string, id int64) error      { return nil }
func (s *stubUserStore) List(ctx context.Context) ([]store.User, error)                { return nil, nil }
func (s *stubUserStore) GetByID(ctx context.Context, id int64) (*store.User, error) {
	return s.user, nil
}
func (s *stubUserStore) GetByUsername(ctx context.Context, username string) (*store.User, error) {
	if s.user == nil || s.user.Username != username {
		return nil, &ledger.NotFoundError{Entity: "user"}
	}
	return s.user, nil
}

func TestRequireUser(t *testing.T) {
	app := testApp(t)
	app.store.Users = &stubUserStore{user: &store.User{
		ID: 1, Username: "maria", Role: store.RoleOperator,
	}}

	var captured *store.User
	handler := app.requireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = currentUser(r)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/users/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := app.tokens.Issue("maria", string(store.RoleOperator))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, captured)
		assert.Equal(t, "maria", captured.Username)
	})
}

func TestRequireAdmin(t *testing.T) {
	app := testApp(t)

	handler := app.requireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("operator refused", func(t *testing.T) {
		operator := &store.User{Username: "op", Role: store.RoleOperator}
		req := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
		req = req.WithContext(context.WithValue(req.Context(), userContextKey, operator))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin allowed", func(t *testing.T) {
		admin := &store.User{Username: "root", Role: store.RoleAdmin}
		req := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
		req = req.WithContext(context.WithValue(req.Context(), userContextKey, admin))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestParseTime(t *testing.T) {
	parsed, err := parseTime("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), parsed)

	_, err = parseTime("15/03/2024")
	assert.Error(t, err)
	_, err = parseTime("")
	assert.Error(t, err)
}

func TestQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/credit-notes?page=3&size=abc&section_id=7", nil)

	assert.Equal(t, 3, queryInt(req, "page", 1))
	assert.Equal(t, 10, queryInt(req, "size", 10))
	assert.Equal(t, int64(7), queryInt64(req, "section_id"))
	assert.Equal(t, int64(0), queryInt64(req, "credit_note_id"))
}
