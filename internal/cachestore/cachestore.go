// Package cachestore is the thin key-value contract the read-path cache
// layer is written against. The production implementation is Redis; tests
// run the same implementation against miniredis.
package cachestore

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent. Callers that need
// seeding semantics must check Exists (or handle ErrMiss) rather than rely
// on the store auto-creating keys: a naive increment-on-absent starts the
// counter at 1 instead of at the durable fallback.
var ErrMiss = errors.New("cache: key not found")

// Store is the subset of key-value operations the shadow entities need.
// No transactions across keys; higher components tolerate partial
// application of multi-key sequences.
type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	Decr(ctx context.Context, key string) (int64, error)
	SetAdd(ctx context.Context, key string, members ...string) error
	SetRemove(ctx context.Context, key, member string) error
	SetIsMember(ctx context.Context, key, member string) (bool, error)
	SetCard(ctx context.Context, key string) (int64, error)
	Delete(ctx context.Context, key string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
}
