package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToken(t *testing.T) {
	a, err := NewToken()
	require.NoError(t, err)
	b, err := NewToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestHashToken(t *testing.T) {
	token := "deadbeef"

	hash := HashToken(token)
	assert.Len(t, hash, 64)
	assert.NotEqual(t, token, hash)
	assert.Equal(t, hash, HashToken(token), "digest must be deterministic")
}

func TestTokensEqual(t *testing.T) {
	assert.True(t, TokensEqual("abc", "abc"))
	assert.False(t, TokensEqual("abc", "abd"))
	assert.False(t, TokensEqual("abc", "abcd"))
}

func TestValidToken(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	token, err := NewToken()
	require.NoError(t, err)
	stored := HashToken(token)

	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	assert.True(t, ValidToken(stored, token, &future, now))
	assert.True(t, ValidToken(stored, token, nil, now), "nil expiry never expires")
	assert.False(t, ValidToken(stored, token, &past, now), "expired token is refused")
	assert.False(t, ValidToken(stored, "wrong", &future, now))
	assert.False(t, ValidToken(stored, "wrong", &past, now))
}
