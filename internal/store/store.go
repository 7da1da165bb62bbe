// Package store is the durable-storage collaborator behind the read-path
// cache. The cache layer treats it as authoritative: counters are seeded
// from it and flushed back, like membership is reconciled against it, and
// detail payloads are rebuilt from it after invalidation.
package store

import (
	"context"
	"errors"

	"github.com/SergeyParamoshkin/blogapi/internal/model"
)

// ErrNotFound is returned for any entity absent from durable storage.
var ErrNotFound = errors.New("not found")

// Store exposes posts, users, likes and comments by primary key.
type Store interface {
	Load(ctx context.Context, id string) (*model.Post, error)
	LoadWithRelations(ctx context.Context, id string) (*model.PostRelations, error)
	List(ctx context.Context, viewerID int64, authenticated bool) ([]*model.Post, error)
	Create(ctx context.Context, post *model.Post) error
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id string) error

	// UpdateViews is a field-only write: it must not touch any other
	// column or fire full-entity side effects, since it runs on the hot
	// read path as the counter flush target.
	UpdateViews(ctx context.Context, id string, views int64) error

	LikeMemberIDs(ctx context.Context, postID string) ([]int64, error)
	AddLikeMember(ctx context.Context, postID string, userID int64) error
	RemoveLikeMember(ctx context.Context, postID string, userID int64) error

	UserByID(ctx context.Context, id int64) (*model.User, error)
	UserByToken(ctx context.Context, token string) (*model.User, error)

	AddComment(ctx context.Context, comment *model.Comment) error
	Comments(ctx context.Context, postID string) ([]*model.Comment, error)

	Categories(ctx context.Context) ([]*model.Category, error)
}
