package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"
)

// NewToken returns a 64-character hex token from 32 random bytes.
func NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashToken returns the hex SHA-256 digest of a token. Only digests are
// stored; the plaintext token lives in the client cookie or header.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// TokensEqual compares two token strings in constant time.
func TokensEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// ValidToken checks a presented plaintext token against a stored digest.
// The comparison runs before the expiry check so both paths take the
// same time regardless of which fails.
func ValidToken(storedHash, presented string, expires *time.Time, now time.Time) bool {
	match := TokensEqual(storedHash, HashToken(presented))
	if expires != nil && now.After(*expires) {
		return false
	}
	return match
}
