// Package post composes the counter, like-set and detail-cache shadows with
// durable storage to serve the blog read path. Service is the only
// component that touches all four collaborators together.
package post

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/SergeyParamoshkin/blogapi/internal/auth"
	"github.com/SergeyParamoshkin/blogapi/internal/cachestore"
	"github.com/SergeyParamoshkin/blogapi/internal/model"
	"github.com/SergeyParamoshkin/blogapi/internal/postrequest"
	"github.com/SergeyParamoshkin/blogapi/internal/postresponse"
	"github.com/SergeyParamoshkin/blogapi/internal/readcache"
	"github.com/SergeyParamoshkin/blogapi/internal/store"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnauthenticated  = errors.New("authentication required")
)

type Service struct {
	store   store.Store
	counter *readcache.Counter
	likes   *readcache.LikeSet
	details *readcache.DetailCache
	logger  *zap.SugaredLogger
}

// NewService wires the three shadow entities over the shared cache store.
// A cache outage fails the request: counter seeding and like toggling are
// meaningless without the shadow store, and a silent bypass would fork the
// count history.
func NewService(st store.Store, kv cachestore.Store, ttl time.Duration, flushEvery int64, logger *zap.SugaredLogger) *Service {
	return &Service{
		store:   st,
		counter: readcache.NewCounter(kv, ttl, flushEvery),
		likes:   readcache.NewLikeSet(kv, ttl),
		details: readcache.NewDetailCache(kv, ttl),
		logger:  logger,
	}
}

// Load fetches a post and applies the ownership-or-published visibility
// rule: a draft simply does not exist for anyone but its author.
func (s *Service) Load(ctx context.Context, id string, viewer auth.Viewer) (*model.Post, error) {
	post, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	if !post.Visible(viewer.ID, viewer.Authenticated) {
		return nil, store.ErrNotFound
	}

	return post, nil
}

// FetchDetail serves the detail page: bump the view counter, flush it to
// durable storage when due, fetch or rebuild the cached public payload,
// then merge in the per-request values. Sub-steps run in this order and any
// failure propagates; there is no partial-failure rollback.
func (s *Service) FetchDetail(ctx context.Context, post *model.Post, viewer auth.Viewer) (*postresponse.PostDetailResponse, error) {
	count, err := s.counter.Current(ctx, post.ID, post.Views)
	if err != nil {
		return nil, fmt.Errorf("view counter: %w", err)
	}

	flushed, err := s.counter.FlushIfDue(ctx, post.ID, count, func(ctx context.Context, views int64) error {
		return s.store.UpdateViews(ctx, post.ID, views)
	})
	if err != nil {
		return nil, fmt.Errorf("view counter flush: %w", err)
	}
	if flushed {
		s.logger.Debugw("flushed view count", "post", post.ID, "views", count)
	}

	raw, err := s.details.GetOrPopulate(ctx, post.ID, func(ctx context.Context) ([]byte, error) {
		rel, err := s.store.LoadWithRelations(ctx, post.ID)
		if err != nil {
			return nil, err
		}

		return json.Marshal(postresponse.BuildDetailPayload(rel))
	})
	if err != nil {
		return nil, fmt.Errorf("detail payload: %w", err)
	}

	if err := s.likes.EnsureSeeded(ctx, post.ID, func(ctx context.Context) ([]int64, error) {
		return s.store.LikeMemberIDs(ctx, post.ID)
	}); err != nil {
		return nil, fmt.Errorf("like set: %w", err)
	}

	isLiked := false
	if viewer.Authenticated {
		isLiked, err = s.likes.IsMember(ctx, post.ID, viewer.ID)
		if err != nil {
			return nil, fmt.Errorf("like membership: %w", err)
		}
	}

	likeCount, err := s.likes.Cardinality(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("like count: %w", err)
	}

	payload := &postresponse.DetailPayload{}
	if err := json.Unmarshal(raw, payload); err != nil {
		return nil, fmt.Errorf("detail payload decode: %w", err)
	}

	return &postresponse.PostDetailResponse{
		DetailPayload: payload,
		Views:         count,
		IsLiked:       isLiked,
		LikeCount:     likeCount,
	}, nil
}

// ToggleLike flips the viewer's like. The cache set and the durable
// relation are mutated together in every call; likes are kept exact, not
// eventually reconciled like views.
func (s *Service) ToggleLike(ctx context.Context, post *model.Post, viewer auth.Viewer) (*postresponse.LikeResponse, error) {
	if !viewer.Authenticated {
		return nil, ErrUnauthenticated
	}

	if err := s.likes.EnsureSeeded(ctx, post.ID, func(ctx context.Context) ([]int64, error) {
		return s.store.LikeMemberIDs(ctx, post.ID)
	}); err != nil {
		return nil, fmt.Errorf("like set: %w", err)
	}

	liked, count, err := s.likes.Toggle(ctx, post.ID, viewer.ID,
		func(ctx context.Context) error { return s.store.AddLikeMember(ctx, post.ID, viewer.ID) },
		func(ctx context.Context) error { return s.store.RemoveLikeMember(ctx, post.ID, viewer.ID) },
	)
	if err != nil {
		return nil, fmt.Errorf("like toggle: %w", err)
	}

	message := "like removed"
	if liked {
		message = "liked"
	}

	return &postresponse.LikeResponse{Message: message, Liked: liked, LikeCount: count}, nil
}

// Create persists a new post authored by the viewer.
func (s *Service) Create(ctx context.Context, viewer auth.Viewer, req *postrequest.PostRequest) (*model.Post, error) {
	if !viewer.Authenticated {
		return nil, ErrUnauthenticated
	}

	post := &model.Post{AuthorID: viewer.ID}
	req.Apply(post)

	if err := s.store.Create(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// Update applies changes author-only, then invalidates the cached detail
// payload before returning so the next reader rebuilds from the new state.
func (s *Service) Update(ctx context.Context, post *model.Post, viewer auth.Viewer, req *postrequest.PostRequest) (*model.Post, error) {
	if err := requireAuthor(post, viewer); err != nil {
		return nil, err
	}

	req.Apply(post)
	if err := s.store.Update(ctx, post); err != nil {
		return nil, err
	}

	if err := s.details.Invalidate(ctx, post.ID); err != nil {
		return nil, fmt.Errorf("detail invalidate: %w", err)
	}

	return post, nil
}

// Delete removes the post and all of its cache shadows. The detail payload
// and counter must go; an expired-but-lingering like set would only waste
// memory, but it is dropped too for symmetry.
func (s *Service) Delete(ctx context.Context, post *model.Post, viewer auth.Viewer) error {
	if err := requireAuthor(post, viewer); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, post.ID); err != nil {
		return err
	}

	if err := s.details.Invalidate(ctx, post.ID); err != nil {
		return fmt.Errorf("detail invalidate: %w", err)
	}
	if err := s.counter.Drop(ctx, post.ID); err != nil {
		return fmt.Errorf("counter drop: %w", err)
	}
	if err := s.likes.Drop(ctx, post.ID); err != nil {
		return fmt.Errorf("like set drop: %w", err)
	}

	return nil
}

// List returns the posts visible to the viewer with their author summaries.
// The list path reads straight from durable storage; only the detail page
// is cache-accelerated.
func (s *Service) List(ctx context.Context, viewer auth.Viewer) ([]*model.Post, map[int64]*model.User, error) {
	posts, err := s.store.List(ctx, viewer.ID, viewer.Authenticated)
	if err != nil {
		return nil, nil, err
	}

	authors := make(map[int64]*model.User)
	for _, post := range posts {
		if _, ok := authors[post.AuthorID]; ok {
			continue
		}

		author, err := s.store.UserByID(ctx, post.AuthorID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}

			return nil, nil, err
		}
		authors[post.AuthorID] = author
	}

	return posts, authors, nil
}

// AddComment stores a comment by the viewer. The cached detail payload
// carries the comment count, so it is invalidated like any other mutation.
func (s *Service) AddComment(ctx context.Context, post *model.Post, viewer auth.Viewer, req *postrequest.CommentRequest) (*model.Comment, error) {
	if !viewer.Authenticated {
		return nil, ErrUnauthenticated
	}

	comment := &model.Comment{PostID: post.ID, AuthorID: viewer.ID, Body: req.Body}
	if err := s.store.AddComment(ctx, comment); err != nil {
		return nil, err
	}

	if err := s.details.Invalidate(ctx, post.ID); err != nil {
		return nil, fmt.Errorf("detail invalidate: %w", err)
	}

	return comment, nil
}

func (s *Service) Comments(ctx context.Context, post *model.Post) ([]*model.Comment, error) {
	return s.store.Comments(ctx, post.ID)
}

func (s *Service) Categories(ctx context.Context) ([]*model.Category, error) {
	return s.store.Categories(ctx)
}

func requireAuthor(post *model.Post, viewer auth.Viewer) error {
	if !viewer.Authenticated {
		return ErrUnauthenticated
	}
	if post.AuthorID != viewer.ID {
		return ErrPermissionDenied
	}

	return nil
}
