package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/farxc/credit_ledger/internal/ledger"
)

type UserStore struct {
	db *sqlx.DB
}

// Create inserts a user and its audit entry in one transaction. Username
// and email collisions surface as duplicate-identifier errors.
func (us *UserStore) Create(ctx context.Context, actor string, u *User) error {
	tx, err := us.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.GetContext(ctx, u, `
		INSERT INTO users (username, email, hashed_password, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, email, hashed_password, role, created_at`,
		u.Username, u.Email, u.HashedPassword, u.Role)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("%w: username or email already registered", ledger.ErrDuplicateIdentifier)
		}
		return fmt.Errorf("insert user %q: %w", u.Username, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO audit_logs (username, action, details) VALUES ($1, $2, $3)`,
		actor, ledger.ActionUserCreated,
		fmt.Sprintf("user %q created with role %q", u.Username, u.Role)); err != nil {
		return fmt.Errorf("record audit: %w", err)
	}
	return tx.Commit()
}

// Delete removes a user and records the deletion atomically.
func (us *UserStore) Delete(ctx context.Context, actor string, id int64) error {
	tx, err := us.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var username string
	err = tx.GetContext(ctx, &username, `DELETE FROM users WHERE id = $1 RETURNING username`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return &ledger.NotFoundError{Entity: "user", ID: id}
	}
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO audit_logs (username, action, details) VALUES ($1, $2, $3)`,
		actor, ledger.ActionUserDeleted,
		fmt.Sprintf("user %q (id %d) deleted", username, id)); err != nil {
		return fmt.Errorf("record audit: %w", err)
	}
	return tx.Commit()
}

func (us *UserStore) List(ctx context.Context) ([]User, error) {
	users := []User{}
	err := us.db.SelectContext(ctx, &users, `
		SELECT id, username, email, hashed_password, role, created_at
		FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (us *UserStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := us.db.GetContext(ctx, &u, `
		SELECT id, username, email, hashed_password, role, created_at
		FROM users WHERE username = $1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", username, ledger.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", username, err)
	}
	return &u, nil
}

func (us *UserStore) GetByID(ctx context.Context, id int64) (*User, error) {
	var u User
	err := us.db.GetContext(ctx, &u, `
		SELECT id, username, email, hashed_password, role, created_at
		FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ledger.NotFoundError{Entity: "user", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &u, nil
}
