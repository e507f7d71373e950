package ratelimit

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAllowedWithinWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	limiter := NewLimiter(clock)

	cfg := Config{Action: "join_room", MaxRequests: 3, Window: time.Minute}

	for i := 0; i < 3; i++ {
		res := limiter.IsAllowed("client-1", cfg)
		require.True(t, res.Allowed, "request %d should be admitted", i+1)
		assert.Equal(t, 3-(i+1), res.Remaining)
	}

	res := limiter.IsAllowed("client-1", cfg)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, time.Minute.Milliseconds(), res.ResetAfterMs)
}

func TestIsAllowedSlidingWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	limiter := NewLimiter(clock)

	cfg := Config{Action: "join_room", MaxRequests: 2, Window: time.Minute}

	require.True(t, limiter.IsAllowed("c", cfg).Allowed)
	clock.Advance(30 * time.Second)
	require.True(t, limiter.IsAllowed("c", cfg).Allowed)
	assert.False(t, limiter.IsAllowed("c", cfg).Allowed)

	// The first timestamp expires 30s later; exactly one slot reopens.
	clock.Advance(31 * time.Second)
	assert.True(t, limiter.IsAllowed("c", cfg).Allowed)
	assert.False(t, limiter.IsAllowed("c", cfg).Allowed)
}

func TestIsAllowedKeysAreIndependent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	limiter := NewLimiter(clock)

	cfg := Config{Action: "send_message", MaxRequests: 1, Window: 2 * time.Second}

	require.True(t, limiter.IsAllowed("alice", cfg).Allowed)
	assert.False(t, limiter.IsAllowed("alice", cfg).Allowed)

	// Another client and another action are unaffected.
	assert.True(t, limiter.IsAllowed("bob", cfg).Allowed)
	assert.True(t, limiter.IsAllowed("alice", Config{Action: "join_room", MaxRequests: 1, Window: time.Minute}).Allowed)
}

func TestRetryFeedbackCounts(t *testing.T) {
	clock := clockwork.NewFakeClock()
	limiter := NewLimiter(clock)

	cfg := Config{Action: "submit_answer", MaxRequests: 2, Window: 10 * time.Second}

	limiter.IsAllowed("c", cfg)
	clock.Advance(4 * time.Second)
	limiter.IsAllowed("c", cfg)

	res := limiter.IsAllowed("c", cfg)
	require.False(t, res.Allowed)
	// The oldest timestamp is 4s old, so the window reopens in 6s.
	assert.Equal(t, int64(6000), res.ResetAfterMs)
}

// The sweep only reclaims memory. Admission decisions before and after a
// sweep are identical because IsAllowed prunes on its own.
func TestSweepEvictsIdleClientsOnly(t *testing.T) {
	clock := clockwork.NewFakeClock()
	limiter := NewLimiter(clock)

	cfg := Config{Action: "join_room", MaxRequests: 5, Window: time.Minute}

	for i := 0; i < 20; i++ {
		limiter.IsAllowed(fmt.Sprintf("idle-%d", i), cfg)
	}
	clock.Advance(retentionWindow + time.Second)
	limiter.IsAllowed("active", cfg)

	require.Equal(t, 21, limiter.TrackedClients())
	limiter.sweep()
	assert.Equal(t, 1, limiter.TrackedClients())

	// The surviving client's window still counts its request.
	res := limiter.IsAllowed("active", cfg)
	assert.True(t, res.Allowed)
	assert.Equal(t, 3, res.Remaining)
}
