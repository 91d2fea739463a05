package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

const userColumns = "id, name, email, is_active, created_at"

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Active, &u.CreatedAt)
	return u, err
}

func validateUserName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if len(name) > 100 {
		return &ValidationError{Field: "name", Message: "must be at most 100 characters"}
	}
	return nil
}

func validateUserEmail(email string) error {
	if email == "" || !strings.Contains(email, "@") {
		return &ValidationError{Field: "email", Message: "must be a valid email address"}
	}
	if len(email) > 100 {
		return &ValidationError{Field: "email", Message: "must be at most 100 characters"}
	}
	return nil
}

// CreateUser inserts a new active user. The email must be unique across all
// users; a collision is reported as a DuplicateError.
func (db *DB) CreateUser(ctx context.Context, name, email string) (*User, error) {
	if err := validateUserName(name); err != nil {
		return nil, err
	}
	if err := validateUserEmail(email); err != nil {
		return nil, err
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO users (name, email) VALUES ($1, $2) RETURNING `+userColumns,
		name, email,
	)
	u, err := scanUser(row)
	if err != nil {
		if dup := mapPgError(err); dup != nil {
			var de *DuplicateError
			if errors.As(dup, &de) {
				de.Value = email
				return nil, de
			}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &u, nil
}

// GetUser returns the user with the given id, or ErrNotFound.
func (db *DB) GetUser(ctx context.Context, id int) (*User, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &u, nil
}

// GetUserByEmail returns the user with the given email, or ErrNotFound.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

// ListUsers returns all users ordered by id ascending.
func (db *DB) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser applies the non-nil fields of upd to the user with the given
// id. The whole update is one durable unit: either every field applies or
// none do.
func (db *DB) UpdateUser(ctx context.Context, id int, upd UserUpdate) (*User, error) {
	sets, args := buildUserSets(upd)
	if len(sets) == 0 {
		return nil, &ValidationError{Field: "update", Message: "no fields to update"}
	}
	if upd.Name != nil {
		if err := validateUserName(*upd.Name); err != nil {
			return nil, err
		}
	}
	if upd.Email != nil {
		if err := validateUserEmail(*upd.Email); err != nil {
			return nil, err
		}
	}

	args = append(args, id)
	sql := fmt.Sprintf(
		`UPDATE users SET %s WHERE id = $%d RETURNING `+userColumns,
		strings.Join(sets, ", "), len(args),
	)

	u, err := scanUser(db.pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if dup := mapPgError(err); dup != nil {
			var de *DuplicateError
			if errors.As(dup, &de) {
				if upd.Email != nil {
					de.Value = *upd.Email
				}
				return nil, de
			}
		}
		return nil, fmt.Errorf("failed to update user %d: %w", id, err)
	}
	return &u, nil
}

func buildUserSets(upd UserUpdate) ([]string, []interface{}) {
	var sets []string
	var args []interface{}
	if upd.Name != nil {
		args = append(args, *upd.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if upd.Email != nil {
		args = append(args, *upd.Email)
		sets = append(sets, fmt.Sprintf("email = $%d", len(args)))
	}
	if upd.Active != nil {
		args = append(args, *upd.Active)
		sets = append(sets, fmt.Sprintf("is_active = $%d", len(args)))
	}
	return sets, args
}

// DeleteUser removes a user. A user that owns one or more orders cannot be
// deleted; the guard and the delete run in the same transaction so no order
// can appear between the check and the delete.
func (db *DB) DeleteUser(ctx context.Context, id int) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var orderCount int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE user_id = $1`, id).Scan(&orderCount)
	if err != nil {
		return fmt.Errorf("failed to count orders for user %d: %w", id, err)
	}
	if orderCount > 0 {
		return &ReferentialError{Entity: "user", ID: id, Dependents: "orders", Count: orderCount}
	}

	tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return &CommitError{Op: "delete user", Err: err}
	}
	return nil
}
