package view

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flopysoft/flopy-crm/internal/models"
)

func TestParseContactCSV(t *testing.T) {
	input := "\xef\xbb\xbfFirst_Name,LAST_NAME,email,company\n" +
		"Ada,Lovelace,ada@example.com,Analytical Engines\n" +
		",Hopper,grace@example.com,Navy\n"

	rows, err := ParseContactCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Ada", rows[0].FirstName)
	assert.Equal(t, "Lovelace", rows[0].LastName)
	assert.Equal(t, "ada@example.com", rows[0].Email)
	assert.Equal(t, "Analytical Engines", rows[0].Company)

	assert.Empty(t, rows[1].FirstName, "blank cells are kept for the caller to judge")
	assert.Equal(t, "Hopper", rows[1].LastName)
}

func TestParseContactCSVMissingHeaders(t *testing.T) {
	_, err := ParseContactCSV(strings.NewReader("first_name,email\nAda,ada@example.com\n"))
	assert.ErrorIs(t, err, ErrMissingHeaders)

	_, err = ParseContactCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMissingHeaders)
}

func TestParseContactCSVShortRecords(t *testing.T) {
	input := "first_name,last_name,email\nAda,Lovelace\n"

	rows, err := ParseContactCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Lovelace", rows[0].LastName)
	assert.Empty(t, rows[0].Email)
}

func TestWriteContactCSV(t *testing.T) {
	contacts := []models.Contact{
		{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     "ada@example.com",
			Tags:      []models.Tag{{Name: "vip"}, {Name: "lead"}},
			CreatedAt: time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteContactCSV(&buf, contacts))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\xef\xbb\xbf"), "export starts with a BOM")

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(out, "\xef\xbb\xbf")), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "first_name,last_name,email,phone,company,position,address,city,country,notes,tags,created_at", lines[0])
	assert.Contains(t, lines[1], "vip;lead")
	assert.Contains(t, lines[1], "2026-03-01T12:00:00Z")
}
