package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testLimiter(start time.Time) (*FixedWindow, *time.Time) {
	now := start
	f := NewFixedWindow()
	f.now = func() time.Time { return now }
	return f, &now
}

func TestFixedWindowLimit(t *testing.T) {
	f, _ := testLimiter(time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC))

	for i := 0; i < 5; i++ {
		assert.False(t, f.Limited("login", "10.0.0.1", 5, 5*time.Minute), "attempt %d within limit", i+1)
	}
	assert.True(t, f.Limited("login", "10.0.0.1", 5, 5*time.Minute))
	assert.True(t, f.Limited("login", "10.0.0.1", 5, 5*time.Minute))
}

func TestFixedWindowExpiry(t *testing.T) {
	f, now := testLimiter(time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC))

	for i := 0; i < 6; i++ {
		f.Limited("login", "10.0.0.1", 5, 5*time.Minute)
	}
	assert.True(t, f.Limited("login", "10.0.0.1", 5, 5*time.Minute))

	*now = now.Add(5*time.Minute + time.Second)
	assert.False(t, f.Limited("login", "10.0.0.1", 5, 5*time.Minute), "window resets after span")
}

func TestFixedWindowKeyedPerActionAndAddr(t *testing.T) {
	f, _ := testLimiter(time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC))

	for i := 0; i < 6; i++ {
		f.Limited("login", "10.0.0.1", 5, 5*time.Minute)
	}
	assert.True(t, f.Limited("login", "10.0.0.1", 5, 5*time.Minute))
	assert.False(t, f.Limited("login", "10.0.0.2", 5, 5*time.Minute), "other address unaffected")
	assert.False(t, f.Limited("register", "10.0.0.1", 5, 5*time.Minute), "other action unaffected")
}

func TestFixedWindowReset(t *testing.T) {
	f, _ := testLimiter(time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC))

	for i := 0; i < 6; i++ {
		f.Limited("login", "10.0.0.1", 5, 5*time.Minute)
	}
	assert.True(t, f.Limited("login", "10.0.0.1", 5, 5*time.Minute))

	f.Reset("login", "10.0.0.1")
	assert.False(t, f.Limited("login", "10.0.0.1", 5, 5*time.Minute))
}
