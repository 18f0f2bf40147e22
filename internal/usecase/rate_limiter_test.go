package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_SpacesCalls(t *testing.T) {
	limiter := NewRateLimiter(20)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Throttle(ctx))
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestRateLimiter_FirstCallImmediate(t *testing.T) {
	limiter := NewRateLimiter(0.5)
	start := time.Now()
	require.NoError(t, limiter.Throttle(context.Background()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestRateLimiter_Cancelled(t *testing.T) {
	limiter := NewRateLimiter(1)
	require.NoError(t, limiter.Throttle(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, limiter.Throttle(ctx))
}
