package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")

	// ErrNoConnection is returned when no database connection is available.
	ErrNoConnection = errors.New("no database connection")
)

// ValidationError reports a malformed or missing input field. It is returned
// before any row is written.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// DuplicateError reports a unique-field collision.
type DuplicateError struct {
	Field string
	Value string
}

// Error implements the error interface.
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s: %q already exists", e.Field, e.Value)
}

// ReferentialError reports a delete blocked by dependent rows.
type ReferentialError struct {
	Entity     string
	ID         int
	Dependents string
	Count      int
}

// Error implements the error interface.
func (e *ReferentialError) Error() string {
	return fmt.Sprintf("cannot delete %s %d: referenced by %d %s", e.Entity, e.ID, e.Count, e.Dependents)
}

// CommitError reports a store transaction that could not be durably applied.
// The state is unchanged: everything rolled back.
type CommitError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *CommitError) Error() string {
	return fmt.Sprintf("%s: commit failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *CommitError) Unwrap() error {
	return e.Err
}

// PostgreSQL SQLSTATE codes surfaced by constraint violations.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// mapPgError translates driver-level constraint violations into the store's
// error taxonomy. Unique violations carry the offending field derived from
// the constraint name; everything else passes through unchanged.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		return &DuplicateError{Field: fieldForConstraint(pgErr.ConstraintName)}
	case pgForeignKeyViolation:
		// Guards are checked explicitly inside the same transaction; the
		// constraint is a backstop.
		return &ReferentialError{Entity: pgErr.TableName, Dependents: pgErr.ConstraintName, Count: 1}
	}

	return err
}

func fieldForConstraint(constraint string) string {
	switch constraint {
	case "users_email_key":
		return "email"
	case "products_name_key":
		return "name"
	}
	return constraint
}
