package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmoore-dev/reeltap/internal/extractor"
)

func TestProbeCache_GetOrProbe_CachesAcrossCalls(t *testing.T) {
	c, err := NewProbeCache(8, time.Minute)
	require.NoError(t, err)

	calls := 0
	fn := func(ctx context.Context) (*extractor.ProbeResult, error) {
		calls++
		return &extractor.ProbeResult{Title: "video"}, nil
	}

	_, hit, err := c.GetOrProbe(context.Background(), "url1", fn)
	require.NoError(t, err)
	assert.False(t, hit)

	result, hit, err := c.GetOrProbe(context.Background(), "url1", fn)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "video", result.Title)
	assert.Equal(t, 1, calls)
}

func TestProbeCache_ExpiresAfterTTL(t *testing.T) {
	c, err := NewProbeCache(8, time.Millisecond)
	require.NoError(t, err)

	c.Set("url1", &extractor.ProbeResult{Title: "video"})
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("url1")
	assert.False(t, ok)
}

func TestProbeCache_DoesNotCacheErrors(t *testing.T) {
	c, err := NewProbeCache(8, time.Minute)
	require.NoError(t, err)

	_, _, err = c.GetOrProbe(context.Background(), "url1", func(ctx context.Context) (*extractor.ProbeResult, error) {
		return nil, assertErr
	})
	require.Error(t, err)

	_, ok := c.Get("url1")
	assert.False(t, ok)
}

var assertErr = context.DeadlineExceeded

func TestProbeCache_OnHitAndOnMissFire(t *testing.T) {
	c, err := NewProbeCache(8, time.Minute)
	require.NoError(t, err)

	hits, misses := 0, 0
	c.OnHit(func() { hits++ })
	c.OnMiss(func() { misses++ })

	fn := func(ctx context.Context) (*extractor.ProbeResult, error) {
		return &extractor.ProbeResult{Title: "video"}, nil
	}

	_, _, err = c.GetOrProbe(context.Background(), "url1", fn)
	require.NoError(t, err)
	assert.Equal(t, 0, hits)
	assert.Equal(t, 1, misses)

	_, _, err = c.GetOrProbe(context.Background(), "url1", fn)
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
}
