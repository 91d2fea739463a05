package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUserName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "valid", input: "Alice Johnson"},
		{name: "empty", input: "", wantErr: "validation error on field name: must not be empty"},
		{name: "whitespace only", input: "   ", wantErr: "validation error on field name: must not be empty"},
		{name: "too long", input: string(make([]byte, 101)), wantErr: "validation error on field name: must be at most 100 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateUserName(tt.input)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateUserEmail(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantOK bool
	}{
		{name: "valid", input: "alice@example.com", wantOK: true},
		{name: "empty", input: ""},
		{name: "no at sign", input: "alice.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateUserEmail(tt.input)
			if tt.wantOK {
				assert.NoError(t, err)
			} else {
				var ve *ValidationError
				assert.ErrorAs(t, err, &ve)
				assert.Equal(t, "email", ve.Field)
			}
		})
	}
}

func TestBuildUserSets(t *testing.T) {
	name := "Alice"
	email := "alice@example.com"
	active := false

	t.Run("empty update", func(t *testing.T) {
		sets, args := buildUserSets(UserUpdate{})
		assert.Empty(t, sets)
		assert.Empty(t, args)
	})

	t.Run("single field", func(t *testing.T) {
		sets, args := buildUserSets(UserUpdate{Email: &email})
		assert.Equal(t, []string{"email = $1"}, sets)
		assert.Equal(t, []interface{}{email}, args)
	})

	t.Run("all fields keep positional order", func(t *testing.T) {
		sets, args := buildUserSets(UserUpdate{Name: &name, Email: &email, Active: &active})
		assert.Equal(t, []string{"name = $1", "email = $2", "is_active = $3"}, sets)
		assert.Equal(t, []interface{}{name, email, active}, args)
	})

	t.Run("skipped field renumbers placeholders", func(t *testing.T) {
		sets, args := buildUserSets(UserUpdate{Name: &name, Active: &active})
		assert.Equal(t, []string{"name = $1", "is_active = $2"}, sets)
		assert.Equal(t, []interface{}{name, active}, args)
	})
}
