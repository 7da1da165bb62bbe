package post_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SergeyParamoshkin/blogapi/internal/auth"
	"github.com/SergeyParamoshkin/blogapi/internal/cachestore"
	"github.com/SergeyParamoshkin/blogapi/internal/model"
	"github.com/SergeyParamoshkin/blogapi/internal/post"
	"github.com/SergeyParamoshkin/blogapi/internal/postrequest"
	"github.com/SergeyParamoshkin/blogapi/internal/store"
)

var (
	peter = auth.Viewer{ID: 100, Username: "peter", Authenticated: true}
	julia = auth.Viewer{ID: 200, Username: "julia", Authenticated: true}
)

func newService(t *testing.T) (*post.Service, *store.Memory, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	mem := store.NewMemory()
	mem.AddUser(&model.User{ID: 100, Username: "peter", Token: "token-peter"})
	mem.AddUser(&model.User{ID: 200, Username: "julia", Token: "token-julia"})

	svc := post.NewService(mem, cachestore.NewRedis(client), 24*time.Hour, 10, zap.NewNop().Sugar())

	return svc, mem, mr
}

func seedPost(t *testing.T, mem *store.Memory, p *model.Post) *model.Post {
	t.Helper()
	require.NoError(t, mem.Create(context.Background(), p))

	return p
}

func TestFetchDetail_SeedsAndIncrementsViews(t *testing.T) {
	svc, mem, _ := newService(t)
	ctx := context.Background()

	seedPost(t, mem, &model.Post{ID: "p1", Title: "hi", Body: "body", AuthorID: 100, Status: model.StatusPublished, Views: 5})

	loaded, err := svc.Load(ctx, "p1", auth.Anonymous)
	require.NoError(t, err)

	detail, err := svc.FetchDetail(ctx, loaded, auth.Anonymous)
	require.NoError(t, err)
	assert.Equal(t, int64(6), detail.Views, "first read seeds durable+1")

	for want := int64(7); want <= 9; want++ {
		loaded, err = svc.Load(ctx, "p1", auth.Anonymous)
		require.NoError(t, err)

		detail, err = svc.FetchDetail(ctx, loaded, auth.Anonymous)
		require.NoError(t, err)
		assert.Equal(t, want, detail.Views)
	}
}

func TestFetchDetail_FlushesEveryTenthRead(t *testing.T) {
	svc, mem, _ := newService(t)
	ctx := context.Background()

	seedPost(t, mem, &model.Post{ID: "p1", Title: "hi", Body: "body", AuthorID: 100, Status: model.StatusPublished, Views: 5})

	// reads return 6..15; the flush fires when the count hits 10
	var last int64
	for i := 0; i < 10; i++ {
		loaded, err := svc.Load(ctx, "p1", auth.Anonymous)
		require.NoError(t, err)

		detail, err := svc.FetchDetail(ctx, loaded, auth.Anonymous)
		require.NoError(t, err)
		last = detail.Views
	}
	assert.Equal(t, int64(15), last)

	durable, err := mem.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), durable.Views,
		"durable storage holds the flushed value, not the live shadow")
}

func TestFetchDetail_CachedPayloadStaysViewerNeutral(t *testing.T) {
	svc, mem, mr := newService(t)
	ctx := context.Background()

	seedPost(t, mem, &model.Post{ID: "p1", Title: "hi", Body: "body", AuthorID: 100, Status: model.StatusPublished})

	loaded, err := svc.Load(ctx, "p1", peter)
	require.NoError(t, err)

	_, err = svc.FetchDetail(ctx, loaded, peter)
	require.NoError(t, err)

	stored, err := mr.Get("post:detail:p1")
	require.NoError(t, err)

	var asMap map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stored), &asMap))
	assert.NotContains(t, asMap, "views")
	assert.NotContains(t, asMap, "is_liked")
	assert.NotContains(t, asMap, "like_count")
}

func TestFetchDetail_MergesLikeStateForViewer(t *testing.T) {
	svc, mem, _ := newService(t)
	ctx := context.Background()

	p := seedPost(t, mem, &model.Post{ID: "p1", Title: "hi", Body: "body", AuthorID: 200, Status: model.StatusPublished})

	_, err := svc.ToggleLike(ctx, p, peter)
	require.NoError(t, err)

	loaded, err := svc.Load(ctx, "p1", peter)
	require.NoError(t, err)
	detail, err := svc.FetchDetail(ctx, loaded, peter)
	require.NoError(t, err)
	assert.True(t, detail.IsLiked)
	assert.Equal(t, int64(1), detail.LikeCount)

	loaded, err = svc.Load(ctx, "p1", auth.Anonymous)
	require.NoError(t, err)
	detail, err = svc.FetchDetail(ctx, loaded, auth.Anonymous)
	require.NoError(t, err)
	assert.False(t, detail.IsLiked, "anonymous viewers are never is_liked")
	assert.Equal(t, int64(1), detail.LikeCount)
}

func TestToggleLike(t *testing.T) {
	svc, mem, _ := newService(t)
	ctx := context.Background()

	p := seedPost(t, mem, &model.Post{ID: "p1", Title: "hi", Body: "body", AuthorID: 200, Status: model.StatusPublished})

	t.Run("requires authentication", func(t *testing.T) {
		_, err := svc.ToggleLike(ctx, p, auth.Anonymous)
		assert.ErrorIs(t, err, post.ErrUnauthenticated)
	})

	t.Run("alternates and keeps durable in lock-step", func(t *testing.T) {
		resp, err := svc.ToggleLike(ctx, p, peter)
		require.NoError(t, err)
		assert.True(t, resp.Liked)
		assert.Equal(t, int64(1), resp.LikeCount)

		ids, err := mem.LikeMemberIDs(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, []int64{100}, ids)

		resp, err = svc.ToggleLike(ctx, p, peter)
		require.NoError(t, err)
		assert.False(t, resp.Liked)
		assert.Equal(t, int64(0), resp.LikeCount)

		ids, err = mem.LikeMemberIDs(ctx, "p1")
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("seeds cardinality from durable membership", func(t *testing.T) {
		p2 := seedPost(t, mem, &model.Post{ID: "p2", Title: "sup", Body: "body", AuthorID: 100, Status: model.StatusPublished})
		require.NoError(t, mem.AddLikeMember(ctx, "p2", 200))

		resp, err := svc.ToggleLike(ctx, p2, peter)
		require.NoError(t, err)
		assert.True(t, resp.Liked)
		assert.Equal(t, int64(2), resp.LikeCount)
	})
}

func TestLoad_VisibilityRule(t *testing.T) {
	svc, mem, _ := newService(t)
	ctx := context.Background()

	seedPost(t, mem, &model.Post{ID: "pub", Title: "hi", Body: "body", AuthorID: 100, Status: model.StatusPublished})
	seedPost(t, mem, &model.Post{ID: "draft", Title: "wip", Body: "body", AuthorID: 100, Status: model.StatusDraft})

	t.Run("anonymous reads published", func(t *testing.T) {
		_, err := svc.Load(ctx, "pub", auth.Anonymous)
		assert.NoError(t, err)
	})

	t.Run("anonymous cannot see drafts", func(t *testing.T) {
		_, err := svc.Load(ctx, "draft", auth.Anonymous)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("non-author cannot see drafts", func(t *testing.T) {
		_, err := svc.Load(ctx, "draft", julia)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("author sees own draft", func(t *testing.T) {
		_, err := svc.Load(ctx, "draft", peter)
		assert.NoError(t, err)
	})
}

func TestUpdate_PermissionsAndInvalidation(t *testing.T) {
	svc, mem, mr := newService(t)
	ctx := context.Background()

	p := seedPost(t, mem, &model.Post{ID: "p1", Title: "old title", Body: "body", AuthorID: 100, Status: model.StatusPublished})

	changes := &postrequest.PostRequest{Title: "new title", Body: "body", Status: "published"}

	t.Run("anonymous rejected", func(t *testing.T) {
		cp := *p
		_, err := svc.Update(ctx, &cp, auth.Anonymous, changes)
		assert.ErrorIs(t, err, post.ErrUnauthenticated)
	})

	t.Run("non-author rejected", func(t *testing.T) {
		cp := *p
		_, err := svc.Update(ctx, &cp, julia, changes)
		assert.ErrorIs(t, err, post.ErrPermissionDenied)
	})

	t.Run("author update invalidates cached detail", func(t *testing.T) {
		loaded, err := svc.Load(ctx, "p1", auth.Anonymous)
		require.NoError(t, err)

		detail, err := svc.FetchDetail(ctx, loaded, auth.Anonymous)
		require.NoError(t, err)
		assert.Equal(t, "old title", detail.Title)
		assert.True(t, mr.Exists("post:detail:p1"))

		loaded, err = svc.Load(ctx, "p1", peter)
		require.NoError(t, err)
		_, err = svc.Update(ctx, loaded, peter, changes)
		require.NoError(t, err)
		assert.False(t, mr.Exists("post:detail:p1"), "invalidated before returning")

		loaded, err = svc.Load(ctx, "p1", auth.Anonymous)
		require.NoError(t, err)
		detail, err = svc.FetchDetail(ctx, loaded, auth.Anonymous)
		require.NoError(t, err)
		assert.Equal(t, "new title", detail.Title, "repopulated from the updated row")
	})
}

func TestDelete_DropsShadows(t *testing.T) {
	svc, mem, mr := newService(t)
	ctx := context.Background()

	seedPost(t, mem, &model.Post{ID: "p1", Title: "hi", Body: "body", AuthorID: 100, Status: model.StatusPublished})

	loaded, err := svc.Load(ctx, "p1", peter)
	require.NoError(t, err)

	_, err = svc.FetchDetail(ctx, loaded, peter)
	require.NoError(t, err)
	_, err = svc.ToggleLike(ctx, loaded, peter)
	require.NoError(t, err)

	require.True(t, mr.Exists("post:p1:view_count"))
	require.True(t, mr.Exists("post:detail:p1"))
	require.True(t, mr.Exists("post:p1:like_member"))

	t.Run("non-author rejected", func(t *testing.T) {
		assert.ErrorIs(t, svc.Delete(ctx, loaded, julia), post.ErrPermissionDenied)
	})

	t.Run("author delete removes everything", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, loaded, peter))

		assert.False(t, mr.Exists("post:p1:view_count"))
		assert.False(t, mr.Exists("post:detail:p1"))
		assert.False(t, mr.Exists("post:p1:like_member"))

		_, err := mem.Load(ctx, "p1")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestCreate(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	t.Run("requires authentication", func(t *testing.T) {
		_, err := svc.Create(ctx, auth.Anonymous, &postrequest.PostRequest{Title: "t", Body: "b", Status: "published"})
		assert.ErrorIs(t, err, post.ErrUnauthenticated)
	})

	t.Run("author comes from the viewer", func(t *testing.T) {
		created, err := svc.Create(ctx, peter, &postrequest.PostRequest{Title: "t", Body: "b", Status: "draft"})
		require.NoError(t, err)
		assert.Equal(t, int64(100), created.AuthorID)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, model.StatusDraft, created.Status)
	})
}

func TestList_OwnershipOrPublished(t *testing.T) {
	svc, mem, _ := newService(t)
	ctx := context.Background()

	seedPost(t, mem, &model.Post{ID: "pub", Title: "hi", Body: "body", AuthorID: 100, Status: model.StatusPublished})
	seedPost(t, mem, &model.Post{ID: "draft", Title: "wip", Body: "body", AuthorID: 100, Status: model.StatusDraft})

	posts, authors, err := svc.List(ctx, auth.Anonymous)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "pub", posts[0].ID)
	assert.Contains(t, authors, int64(100))

	posts, _, err = svc.List(ctx, peter)
	require.NoError(t, err)
	assert.Len(t, posts, 2, "authors see their own drafts")

	posts, _, err = svc.List(ctx, julia)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestAddComment_InvalidatesDetail(t *testing.T) {
	svc, mem, mr := newService(t)
	ctx := context.Background()

	p := seedPost(t, mem, &model.Post{ID: "p1", Title: "hi", Body: "body", AuthorID: 100, Status: model.StatusPublished})

	loaded, err := svc.Load(ctx, "p1", peter)
	require.NoError(t, err)
	detail, err := svc.FetchDetail(ctx, loaded, peter)
	require.NoError(t, err)
	assert.Equal(t, int64(0), detail.CommentCount)

	_, err = svc.AddComment(ctx, p, julia, &postrequest.CommentRequest{Body: "nice"})
	require.NoError(t, err)
	assert.False(t, mr.Exists("post:detail:p1"))

	loaded, err = svc.Load(ctx, "p1", peter)
	require.NoError(t, err)
	detail, err = svc.FetchDetail(ctx, loaded, peter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), detail.CommentCount)

	comments, err := svc.Comments(ctx, p)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "nice", comments[0].Body)
}
