package readcache

import (
	"context"
	"errors"
	"time"

	"github.com/SergeyParamoshkin/blogapi/internal/cachestore"
)

// DetailCache caches the serialized public representation of a post:
// everything except viewer-specific and fast-changing fields. Views and
// is_liked are merged into the response at request time from the other two
// shadows, so the cached payload stays valid across hits.
type DetailCache struct {
	kv  cachestore.Store
	ttl time.Duration
}

func NewDetailCache(kv cachestore.Store, ttl time.Duration) *DetailCache {
	return &DetailCache{kv: kv, ttl: ttl}
}

// GetOrPopulate returns the cached payload, or invokes load, stores the
// result with the TTL and returns it.
func (d *DetailCache) GetOrPopulate(ctx context.Context, postID string, load func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	key := detailKey(postID)

	cached, err := d.kv.Get(ctx, key)
	if err == nil {
		return []byte(cached), nil
	}
	if !errors.Is(err, cachestore.ErrMiss) {
		return nil, err
	}

	payload, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if err := d.kv.Set(ctx, key, string(payload), d.ttl); err != nil {
		return nil, err
	}

	return payload, nil
}

// Invalidate deletes the cached payload. Callers run it synchronously
// inside the same logical operation as the mutation, before returning to
// the client: a reader arriving after the response must repopulate from
// the post-mutation state.
func (d *DetailCache) Invalidate(ctx context.Context, postID string) error {
	return d.kv.Delete(ctx, detailKey(postID))
}
