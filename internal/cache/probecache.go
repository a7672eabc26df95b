// Package cache deduplicates concurrent and repeated probe requests for
// the same URL behind an LRU + singleflight layer, so a burst of clients
// asking about the same video triggers only one extractor invocation.
package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/tmoore-dev/reeltap/internal/extractor"
)

type entry struct {
	result    *extractor.ProbeResult
	expiresAt time.Time
}

// ProbeCache caches successful probe results keyed by URL, with a fixed
// TTL, and collapses concurrent lookups for the same key into a single
// call to fn.
type ProbeCache struct {
	ttl   time.Duration
	lru   *lru.Cache[string, entry]
	group singleflight.Group

	onHit  func()
	onMiss func()
}

// NewProbeCache builds a ProbeCache holding up to size entries for ttl each.
func NewProbeCache(size int, ttl time.Duration) (*ProbeCache, error) {
	c, err := lru.New[string, entry](size)
	if err != nil {
		return nil, err
	}
	return &ProbeCache{ttl: ttl, lru: c}, nil
}

// OnHit registers a callback invoked once per GetOrProbe call that was
// served from cache, so callers can surface it as a metric without this
// package depending on one.
func (c *ProbeCache) OnHit(fn func()) { c.onHit = fn }

// OnMiss registers a callback invoked once per GetOrProbe call that fell
// through to fn.
func (c *ProbeCache) OnMiss(fn func()) { c.onMiss = fn }

// Get returns a cached, non-expired probe result for key, if any.
func (c *ProbeCache) Get(key string) (*extractor.ProbeResult, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.lru.Remove(key)
		return nil, false
	}
	return e.result, true
}

// Set stores result under key with the cache's configured TTL.
func (c *ProbeCache) Set(key string, result *extractor.ProbeResult) {
	c.lru.Add(key, entry{result: result, expiresAt: time.Now().Add(c.ttl)})
}

// GetOrProbe returns the cached result for key if present and fresh;
// otherwise it calls fn exactly once even under concurrent callers
// sharing the same key, caches a successful result, and returns it.
func (c *ProbeCache) GetOrProbe(ctx context.Context, key string, fn func(ctx context.Context) (*extractor.ProbeResult, error)) (*extractor.ProbeResult, bool, error) {
	if cached, ok := c.Get(key); ok {
		if c.onHit != nil {
			c.onHit()
		}
		return cached, true, nil
	}

	if c.onMiss != nil {
		c.onMiss()
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		result, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}

	return v.(*extractor.ProbeResult), false, nil
}
