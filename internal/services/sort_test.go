package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDir(t *testing.T) {
	assert.Equal(t, "ASC", normalizeDir("asc"))
	assert.Equal(t, "ASC", normalizeDir("ASC"))
	assert.Equal(t, "DESC", normalizeDir("desc"))
	assert.Equal(t, "DESC", normalizeDir(""))
	assert.Equal(t, "DESC", normalizeDir("sideways"))
}

func TestSortField(t *testing.T) {
	allowed := []string{"first_name", "created_at"}
	assert.Equal(t, "first_name", sortField("first_name", "created_at", allowed))
	assert.Equal(t, "created_at", sortField("", "created_at", allowed))
	assert.Equal(t, "created_at", sortField("password", "created_at", allowed))
	assert.Equal(t, "created_at", sortField("first_name; --", "created_at", allowed))
}

func TestParseDateTime(t *testing.T) {
	cases := []string{
		"2026-03-01T10:30:00",
		"2026-03-01T10:30",
		"2026-03-01 10:30:00",
		"2026-03-01 10:30",
		"2026-03-01",
		"2026-03-01T10:30:00Z",
	}
	for _, input := range cases {
		got, err := parseDateTime(input)
		require.NoError(t, err, input)
		assert.Equal(t, 2026, got.Year())
		assert.Equal(t, time.March, got.Month())
	}

	_, err := parseDateTime("03/01/2026")
	assert.ErrorIs(t, err, ErrBadDate)
	_, err = parseDateTime("")
	assert.ErrorIs(t, err, ErrBadDate)
}
