package readcache

import (
	"context"
	"time"

	"github.com/SergeyParamoshkin/blogapi/internal/cachestore"
)

// Counter manages the per-post view-count shadow. While the shadow exists
// it supersedes the durable count for read purposes; it is re-seeded from
// the durable value after expiry or eviction.
type Counter struct {
	kv         cachestore.Store
	ttl        time.Duration
	flushEvery int64
}

func NewCounter(kv cachestore.Store, ttl time.Duration, flushEvery int64) *Counter {
	if flushEvery <= 0 {
		flushEvery = 10
	}

	return &Counter{kv: kv, ttl: ttl, flushEvery: flushEvery}
}

// Current returns the view count for this read. On the first read after
// expiry or eviction the shadow is seeded to durableCount+1 (this read
// counts); afterwards every call is a plain atomic increment.
//
// Two concurrent first reads may both seed; both compute the same value
// from the same durable fallback, so last-writer-wins is benign.
func (c *Counter) Current(ctx context.Context, postID string, durableCount int64) (int64, error) {
	key := viewCountKey(postID)

	exists, err := c.kv.Exists(ctx, key)
	if err != nil {
		return 0, err
	}

	if !exists {
		seed := durableCount + 1
		if err := c.kv.Set(ctx, key, formatInt(seed), c.ttl); err != nil {
			return 0, err
		}

		return seed, nil
	}

	return c.kv.Incr(ctx, key)
}

// FlushIfDue writes the count through to durable storage on every Nth read
// (count divisible by the configured threshold). This is a throttle, not a
// guarantee: up to N-1 increments are lost if the process dies between
// flushes. Returns whether a flush happened.
func (c *Counter) FlushIfDue(ctx context.Context, postID string, count int64, write func(ctx context.Context, views int64) error) (bool, error) {
	if count%c.flushEvery != 0 {
		return false, nil
	}

	if err := write(ctx, count); err != nil {
		return false, err
	}

	return true, nil
}

// Drop removes the shadow, used when the post itself is deleted.
func (c *Counter) Drop(ctx context.Context, postID string) error {
	return c.kv.Delete(ctx, viewCountKey(postID))
}
