package validation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string  `json:"name" validate:"required,min=2,max=5"`
	Email string  `json:"email" validate:"required,email"`
	Role  *string `json:"role,omitempty" validate:"omitempty,oneof=user admin"`
	Skip  string  `json:"-" validate:"omitempty,min=3"`
}

func TestStructValid(t *testing.T) {
	require.NoError(t, Struct(payload{Name: "Bob", Email: "bob@example.com"}))
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	role := "root"
	err := Struct(payload{Name: "B", Email: "nope", Role: &role})

	var vErr *Error
	require.ErrorAs(t, err, &vErr)
	require.ElementsMatch(t, []FieldError{
		{Field: "name", Message: "must be at least 2 characters"},
		{Field: "email", Message: "must be a valid email"},
		{Field: "role", Message: "must be one of: user, admin"},
	}, vErr.Fields)
}

func TestStructRequired(t *testing.T) {
	err := Struct(payload{})

	var vErr *Error
	require.ErrorAs(t, err, &vErr)
	require.Contains(t, vErr.Fields, FieldError{Field: "name", Message: "is required"})
	require.Contains(t, vErr.Fields, FieldError{Field: "email", Message: "is required"})
}

func TestNewError(t *testing.T) {
	err := NewError("id", "ID must be a valid positive integer")
	require.EqualError(t, err, "validation failed: id: ID must be a valid positive integer")
}
