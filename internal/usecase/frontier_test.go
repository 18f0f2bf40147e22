package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/site-mirror/internal/adapter/memory"
)

func TestFrontier(t *testing.T) {
	ctx := context.Background()
	f := NewFrontier(memory.NewVisitedRepo(), memory.NewQueueRepo())

	added, err := f.Offer(ctx, "http://x.test/")
	require.NoError(t, err)
	assert.True(t, added)
	added, err = f.Offer(ctx, "http://x.test/")
	require.NoError(t, err)
	assert.False(t, added, "already queued")

	_, err = f.Offer(ctx, "http://x.test/a")
	require.NoError(t, err)

	u, ok, err := f.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "http://x.test/", u)

	first, err := f.Visit(ctx, u)
	require.NoError(t, err)
	assert.True(t, first)
	again, err := f.Visit(ctx, u)
	require.NoError(t, err)
	assert.False(t, again)

	added, err = f.Offer(ctx, u)
	require.NoError(t, err)
	assert.False(t, added, "visited URLs are never queued")

	require.NoError(t, f.Requeue(ctx, u))
	n, err := f.VisitedCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	u, ok, err = f.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "http://x.test/", u, "requeued URL jumps the queue")

	u, ok, err = f.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "http://x.test/a", u)

	_, ok, err = f.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
