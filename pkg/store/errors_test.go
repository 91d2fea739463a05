package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapPgError(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, mapPgError(nil))
	})

	t.Run("no rows becomes not found", func(t *testing.T) {
		err := mapPgError(fmt.Errorf("query: %w", pgx.ErrNoRows))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unique violation on email", func(t *testing.T) {
		err := mapPgError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

		var dup *DuplicateError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "email", dup.Field)
	})

	t.Run("unique violation on product name", func(t *testing.T) {
		err := mapPgError(&pgconn.PgError{Code: "23505", ConstraintName: "products_name_key"})

		var dup *DuplicateError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "name", dup.Field)
	})

	t.Run("foreign key violation", func(t *testing.T) {
		err := mapPgError(&pgconn.PgError{Code: "23503", TableName: "orders", ConstraintName: "orders_user_id_fkey"})

		var ref *ReferentialError
		require.ErrorAs(t, err, &ref)
		assert.Equal(t, "orders", ref.Entity)
	})

	t.Run("unrelated error passes through", func(t *testing.T) {
		sentinel := errors.New("boom")
		assert.ErrorIs(t, mapPgError(sentinel), sentinel)
	})
}

func TestFieldForConstraint(t *testing.T) {
	assert.Equal(t, "email", fieldForConstraint("users_email_key"))
	assert.Equal(t, "name", fieldForConstraint("products_name_key"))
	// Unknown constraints keep their raw name so the failure stays debuggable.
	assert.Equal(t, "orders_pkey", fieldForConstraint("orders_pkey"))
}

func TestErrorMessages(t *testing.T) {
	assert.EqualError(t,
		&ValidationError{Field: "price", Message: "must be positive"},
		"validation error on field price: must be positive")
	assert.EqualError(t,
		&DuplicateError{Field: "email", Value: "a@b.com"},
		`duplicate email: "a@b.com" already exists`)
	assert.EqualError(t,
		&ReferentialError{Entity: "user", ID: 3, Dependents: "orders", Count: 2},
		"cannot delete user 3: referenced by 2 orders")
}

func TestCommitErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &CommitError{Op: "delete user", Err: cause}

	assert.EqualError(t, err, "delete user: commit failed: connection reset")
	assert.ErrorIs(t, err, cause)
}
