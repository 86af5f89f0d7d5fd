package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterBurstAndRefill(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	l := New(2, 1, WithClock(func() time.Time { return now }))

	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"), "bucket exhausted")

	// Other keys have their own bucket.
	assert.True(t, l.Allow("5.6.7.8"))

	// One token per second refills.
	now = now.Add(1500 * time.Millisecond)
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))
}

func TestLimiterCapsAtCapacity(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	l := New(2, 10, WithClock(func() time.Time { return now }))

	assert.True(t, l.Allow("k"))
	now = now.Add(time.Hour)

	assert.True(t, l.Allow("k"))
	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"), "refill never exceeds capacity")
}
