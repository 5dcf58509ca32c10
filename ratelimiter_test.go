package pnwkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterUninitialized(t *testing.T) {
	rl := NewRateLimiter()
	assert.Equal(t, uint64(0), rl.Hit(1000))
}

func TestRateLimiterHitDecrements(t *testing.T) {
	rl := NewRateLimiter()
	rl.Initialize(10, 5, 2000, 60)
	assert.Equal(t, uint64(0), rl.Hit(1000))
	_, remaining, _, _, _ := rl.Snapshot()
	assert.Equal(t, uint64(4), remaining)
}

func TestRateLimiterWindowRollover(t *testing.T) {
	rl := NewRateLimiter()
	rl.Initialize(10, 0, 1000, 60)
	assert.Equal(t, uint64(0), rl.Hit(1001), "crossing reset_epoch reseeds the window")
	_, remaining, resetEpoch, _, _ := rl.Snapshot()
	assert.Equal(t, uint64(9), remaining)
	assert.Equal(t, uint64(1001+1+60), resetEpoch)
}

func TestRateLimiterExhausted(t *testing.T) {
	rl := NewRateLimiter()
	rl.Initialize(10, 0, 2000, 60)
	wait := rl.Hit(1500)
	assert.Equal(t, uint64(2000-1500+1), wait)
}

func TestRateLimiterHandle429WithReset(t *testing.T) {
	rl := NewRateLimiter()
	rl.Initialize(10, 5, 2000, 60)
	reset := uint64(1600)
	wait := rl.HandleTooManyRequests(1500, &reset)
	assert.Equal(t, uint64(100), wait)
	_, remaining, resetEpoch, _, _ := rl.Snapshot()
	assert.Equal(t, uint64(0), remaining)
	assert.Equal(t, uint64(1600), resetEpoch)
}

func TestRateLimiterHandle429Uninitialized(t *testing.T) {
	rl := NewRateLimiter()
	wait := rl.HandleTooManyRequests(1000, nil)
	assert.Equal(t, uint64(60), wait, "uninitialized limiter falls back to max(interval, 60)")
}

func TestRateLimiterHandle429KeepsResetWhenInitialized(t *testing.T) {
	rl := NewRateLimiter()
	rl.Initialize(10, 5, 2000, 60)
	wait := rl.HandleTooManyRequests(1500, nil)
	assert.Equal(t, uint64(500), wait)
}
