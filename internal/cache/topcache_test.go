package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNilCacheIsAPermanentMiss(t *testing.T) {
	var c *TopCache
	ctx := context.Background()

	records, hit := c.GetTop(ctx, "overall", 10)
	assert.False(t, hit)
	assert.Nil(t, records)

	// Writes and invalidations on a nil cache are no-ops, not panics
	c.SetTop(ctx, "overall", 10, nil)
	c.Invalidate(ctx)
}

func TestTopKey(t *testing.T) {
	assert.Equal(t, "leaderboard:top:weekly:25", topKey("weekly", 25))
}
