package readcache

import (
	"context"
	"strconv"
	"time"

	"github.com/SergeyParamoshkin/blogapi/internal/cachestore"
)

// LikeSet manages the per-post set of user IDs who liked the post. Unlike
// the view counter, likes are kept in lock-step with durable storage: every
// toggle mutates both the set and the durable relation in the same request.
// Likes are a cheap boolean relation worth keeping exact; views are a hot
// counter where exactness is traded for throughput.
type LikeSet struct {
	kv  cachestore.Store
	ttl time.Duration
}

func NewLikeSet(kv cachestore.Store, ttl time.Duration) *LikeSet {
	return &LikeSet{kv: kv, ttl: ttl}
}

// EnsureSeeded loads the full durable membership into the set when the
// shadow is absent. Must run before any toggle or membership query, or
// those would operate on a partial set. A post with zero likes leaves the
// set absent, which reads correctly as empty.
func (l *LikeSet) EnsureSeeded(ctx context.Context, postID string, load func(ctx context.Context) ([]int64, error)) error {
	key := likeMemberKey(postID)

	exists, err := l.kv.Exists(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	memberIDs, err := load(ctx)
	if err != nil {
		return err
	}
	if len(memberIDs) == 0 {
		return nil
	}

	members := make([]string, len(memberIDs))
	for i, id := range memberIDs {
		members[i] = strconv.FormatInt(id, 10)
	}

	if err := l.kv.SetAdd(ctx, key, members...); err != nil {
		return err
	}

	return l.kv.Expire(ctx, key, l.ttl)
}

// Toggle flips the user's membership, mutating the set and durable storage
// together, and returns the new state plus cardinality. Concurrent toggles
// by the same user are not serialized; both can observe "not a member" and
// the cardinality can overcount. Accepted: likes are low frequency per
// (post, user) pair.
func (l *LikeSet) Toggle(
	ctx context.Context,
	postID string,
	userID int64,
	durableAdd func(ctx context.Context) error,
	durableRemove func(ctx context.Context) error,
) (bool, int64, error) {
	key := likeMemberKey(postID)
	member := strconv.FormatInt(userID, 10)

	isMember, err := l.kv.SetIsMember(ctx, key, member)
	if err != nil {
		return false, 0, err
	}

	if isMember {
		if err := l.kv.SetRemove(ctx, key, member); err != nil {
			return false, 0, err
		}
		if err := durableRemove(ctx); err != nil {
			return false, 0, err
		}
	} else {
		if err := l.kv.SetAdd(ctx, key, member); err != nil {
			return false, 0, err
		}
		if err := l.kv.Expire(ctx, key, l.ttl); err != nil {
			return false, 0, err
		}
		if err := durableAdd(ctx); err != nil {
			return false, 0, err
		}
	}

	count, err := l.kv.SetCard(ctx, key)
	if err != nil {
		return false, 0, err
	}

	return !isMember, count, nil
}

// IsMember reports whether the user liked the post.
func (l *LikeSet) IsMember(ctx context.Context, postID string, userID int64) (bool, error) {
	return l.kv.SetIsMember(ctx, likeMemberKey(postID), strconv.FormatInt(userID, 10))
}

// Cardinality returns the current like count.
func (l *LikeSet) Cardinality(ctx context.Context, postID string) (int64, error) {
	return l.kv.SetCard(ctx, likeMemberKey(postID))
}

// Drop removes the shadow, used when the post is deleted.
func (l *LikeSet) Drop(ctx context.Context, postID string) error {
	return l.kv.Delete(ctx, likeMemberKey(postID))
}
