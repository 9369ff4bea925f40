package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldErrorsRequired(t *testing.T) {
	f := fieldErrors{}
	f.required("first_name", "")
	f.required("last_name", "   ")
	f.required("email", "ada@example.com")

	assert.False(t, f.ok())
	assert.Contains(t, f, "first_name")
	assert.Contains(t, f, "last_name")
	assert.NotContains(t, f, "email")
}

func TestFieldErrorsEmail(t *testing.T) {
	f := fieldErrors{}
	f.email("email", "not-an-email")
	assert.Contains(t, f, "email")

	f = fieldErrors{}
	f.email("email", "ada@example.com")
	f.email("optional", "")
	assert.True(t, f.ok(), "empty values are left to required()")
}

func TestFieldErrorsMinLengthAndMatch(t *testing.T) {
	f := fieldErrors{}
	f.minLength("password", "short", 8)
	f.match("password_confirm", "abcdefgh", "different")
	assert.Contains(t, f, "password")
	assert.Contains(t, f, "password_confirm")

	f = fieldErrors{}
	f.minLength("password", "longenough", 8)
	f.match("password_confirm", "same", "same")
	assert.True(t, f.ok())
}
