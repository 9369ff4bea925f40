package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingGetSet(t *testing.T) {
	db := testDB(t)
	settings := NewSettingService(db)

	assert.Equal(t, "USD", settings.Get("currency", "USD"), "missing key returns the fallback")

	require.NoError(t, settings.Set("currency", "EUR"))
	assert.Equal(t, "EUR", settings.Get("currency", "USD"))

	// Setting an existing key overwrites it.
	require.NoError(t, settings.Set("currency", "GBP"))
	assert.Equal(t, "GBP", settings.Get("currency", "USD"))

	all, err := settings.All()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"currency": "GBP"}, all)
}
