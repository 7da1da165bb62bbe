package readcache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SergeyParamoshkin/blogapi/internal/readcache"
)

func noLikes(ctx context.Context) ([]int64, error) { return nil, nil }

func durableRecorder(calls *[]string, name string) func(context.Context) error {
	return func(ctx context.Context) error {
		*calls = append(*calls, name)
		return nil
	}
}

func TestLikeSet_SeedsFromDurableMembership(t *testing.T) {
	kv, _ := newKV(t)
	likes := readcache.NewLikeSet(kv, time.Hour)
	ctx := context.Background()

	loads := 0
	load := func(ctx context.Context) ([]int64, error) {
		loads++
		return []int64{100, 200}, nil
	}

	require.NoError(t, likes.EnsureSeeded(ctx, "p1", load))

	count, err := likes.Cardinality(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	ok, err := likes.IsMember(ctx, "p1", 100)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = likes.IsMember(ctx, "p1", 300)
	require.NoError(t, err)
	assert.False(t, ok)

	// second call sees the set present and does not reload
	require.NoError(t, likes.EnsureSeeded(ctx, "p1", load))
	assert.Equal(t, 1, loads)
}

func TestLikeSet_ToggleAlternates(t *testing.T) {
	kv, _ := newKV(t)
	likes := readcache.NewLikeSet(kv, time.Hour)
	ctx := context.Background()

	var durableCalls []string
	add := durableRecorder(&durableCalls, "add")
	remove := durableRecorder(&durableCalls, "remove")

	require.NoError(t, likes.EnsureSeeded(ctx, "p1", noLikes))

	liked, count, err := likes.Toggle(ctx, "p1", 100, add, remove)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), count)

	liked, count, err = likes.Toggle(ctx, "p1", 100, add, remove)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, int64(0), count)

	assert.Equal(t, []string{"add", "remove"}, durableCalls,
		"every toggle mutates durable storage in lock-step")
}

func TestLikeSet_ToggleStartsFromSeededCardinality(t *testing.T) {
	kv, _ := newKV(t)
	likes := readcache.NewLikeSet(kv, time.Hour)
	ctx := context.Background()

	require.NoError(t, likes.EnsureSeeded(ctx, "p1", func(ctx context.Context) ([]int64, error) {
		return []int64{200, 300}, nil
	}))

	var calls []string
	liked, count, err := likes.Toggle(ctx, "p1", 100,
		durableRecorder(&calls, "add"), durableRecorder(&calls, "remove"))
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(3), count)
}

func TestLikeSet_DurableFailurePropagates(t *testing.T) {
	kv, _ := newKV(t)
	likes := readcache.NewLikeSet(kv, time.Hour)
	ctx := context.Background()

	boom := errors.New("db down")
	failing := func(ctx context.Context) error { return boom }
	noop := func(ctx context.Context) error { return nil }

	_, _, err := likes.Toggle(ctx, "p1", 100, failing, noop)
	assert.ErrorIs(t, err, boom)
}

func TestLikeSet_ReseedsAfterExpiry(t *testing.T) {
	kv, mr := newKV(t)
	likes := readcache.NewLikeSet(kv, time.Minute)
	ctx := context.Background()

	require.NoError(t, likes.EnsureSeeded(ctx, "p1", func(ctx context.Context) ([]int64, error) {
		return []int64{100}, nil
	}))

	mr.FastForward(2 * time.Minute)

	require.NoError(t, likes.EnsureSeeded(ctx, "p1", func(ctx context.Context) ([]int64, error) {
		return []int64{100, 200, 300}, nil
	}))

	count, err := likes.Cardinality(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
