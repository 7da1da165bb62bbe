package readcache_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SergeyParamoshkin/blogapi/internal/readcache"
)

func TestDetailCache_PopulatesOnce(t *testing.T) {
	kv, _ := newKV(t)
	details := readcache.NewDetailCache(kv, time.Hour)
	ctx := context.Background()

	loads := 0
	load := func(ctx context.Context) ([]byte, error) {
		loads++
		return []byte(`{"id":"p1","title":"hi"}`), nil
	}

	payload, err := details.GetOrPopulate(ctx, "p1", load)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"p1","title":"hi"}`, string(payload))

	payload, err = details.GetOrPopulate(ctx, "p1", load)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"p1","title":"hi"}`, string(payload))

	assert.Equal(t, 1, loads, "second read is a cache hit")
}

func TestDetailCache_InvalidateForcesRepopulate(t *testing.T) {
	kv, _ := newKV(t)
	details := readcache.NewDetailCache(kv, time.Hour)
	ctx := context.Background()

	loads := 0
	load := func(ctx context.Context) ([]byte, error) {
		loads++
		return []byte(`{"id":"p1"}`), nil
	}

	_, err := details.GetOrPopulate(ctx, "p1", load)
	require.NoError(t, err)

	require.NoError(t, details.Invalidate(ctx, "p1"))

	_, err = details.GetOrPopulate(ctx, "p1", load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestDetailCache_ExpiresAfterTTL(t *testing.T) {
	kv, mr := newKV(t)
	details := readcache.NewDetailCache(kv, time.Minute)
	ctx := context.Background()

	loads := 0
	load := func(ctx context.Context) ([]byte, error) {
		loads++
		return []byte(`{}`), nil
	}

	_, err := details.GetOrPopulate(ctx, "p1", load)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = details.GetOrPopulate(ctx, "p1", load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestDetailCache_StoredPayloadIsViewerNeutral(t *testing.T) {
	kv, mr := newKV(t)
	details := readcache.NewDetailCache(kv, time.Hour)
	ctx := context.Background()

	_, err := details.GetOrPopulate(ctx, "p1", func(ctx context.Context) ([]byte, error) {
		return json.Marshal(map[string]interface{}{"id": "p1", "title": "hi"})
	})
	require.NoError(t, err)

	stored, err := mr.Get("post:detail:p1")
	require.NoError(t, err)

	var asMap map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stored), &asMap))
	assert.NotContains(t, asMap, "views")
	assert.NotContains(t, asMap, "is_liked")
	assert.NotContains(t, asMap, "like_count")
}
