package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SergeyParamoshkin/blogapi/internal/model"
)

// Memory is the in-process Store used for development and tests. Reads
// return copies so callers cannot mutate rows behind the lock.
type Memory struct {
	mu         sync.RWMutex
	posts      map[string]*model.Post
	users      map[int64]*model.User
	categories map[int64]*model.Category
	tags       map[int64]*model.Tag
	likes      map[string]map[int64]struct{}
	comments   map[string][]*model.Comment
}

func NewMemory() *Memory {
	return &Memory{
		posts:      make(map[string]*model.Post),
		users:      make(map[int64]*model.User),
		categories: make(map[int64]*model.Category),
		tags:       make(map[int64]*model.Tag),
		likes:      make(map[string]map[int64]struct{}),
		comments:   make(map[string][]*model.Comment),
	}
}

func (m *Memory) Load(ctx context.Context, id string) (*model.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	post, ok := m.posts[id]
	if !ok {
		return nil, ErrNotFound
	}

	cp := *post

	return &cp, nil
}

func (m *Memory) LoadWithRelations(ctx context.Context, id string) (*model.PostRelations, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	post, ok := m.posts[id]
	if !ok {
		return nil, ErrNotFound
	}

	cp := *post
	rel := &model.PostRelations{
		Post:         &cp,
		CommentCount: int64(len(m.comments[id])),
	}

	if author, ok := m.users[post.AuthorID]; ok {
		a := *author
		rel.Author = &a
	}

	if post.CategoryID != nil {
		if cat, ok := m.categories[*post.CategoryID]; ok {
			c := *cat
			rel.Category = &c
		}
	}

	for _, tagID := range post.TagIDs {
		if tag, ok := m.tags[tagID]; ok {
			rel.Tags = append(rel.Tags, *tag)
		}
	}

	return rel, nil
}

func (m *Memory) List(ctx context.Context, viewerID int64, authenticated bool) ([]*model.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var posts []*model.Post
	for _, post := range m.posts {
		if !post.Visible(viewerID, authenticated) {
			continue
		}
		cp := *post
		posts = append(posts, &cp)
	}

	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})

	return posts, nil
}

func (m *Memory) Create(ctx context.Context, post *model.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if post.ID == "" {
		post.ID = uuid.NewString()
	}

	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now

	cp := *post
	m.posts[post.ID] = &cp

	return nil
}

func (m *Memory) Update(ctx context.Context, post *model.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[post.ID]; !ok {
		return ErrNotFound
	}

	post.UpdatedAt = time.Now()
	cp := *post
	m.posts[post.ID] = &cp

	return nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[id]; !ok {
		return ErrNotFound
	}

	delete(m.posts, id)
	delete(m.likes, id)
	delete(m.comments, id)

	return nil
}

func (m *Memory) UpdateViews(ctx context.Context, id string, views int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	post, ok := m.posts[id]
	if !ok {
		return ErrNotFound
	}

	post.Views = views

	return nil
}

func (m *Memory) LikeMemberIDs(ctx context.Context, postID string) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	members := m.likes[postID]
	ids := make([]int64, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}

	return ids, nil
}

func (m *Memory) AddLikeMember(ctx context.Context, postID string, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[postID]; !ok {
		return ErrNotFound
	}

	if m.likes[postID] == nil {
		m.likes[postID] = make(map[int64]struct{})
	}
	m.likes[postID][userID] = struct{}{}

	return nil
}

func (m *Memory) RemoveLikeMember(ctx context.Context, postID string, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.likes[postID], userID)

	return nil
}

func (m *Memory) UserByID(ctx context.Context, id int64) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}

	cp := *user

	return &cp, nil
}

func (m *Memory) UserByToken(ctx context.Context, token string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.Token != "" && user.Token == token {
			cp := *user

			return &cp, nil
		}
	}

	return nil, ErrNotFound
}

func (m *Memory) AddComment(ctx context.Context, comment *model.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[comment.PostID]; !ok {
		return ErrNotFound
	}

	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	comment.CreatedAt = time.Now()

	cp := *comment
	m.comments[comment.PostID] = append(m.comments[comment.PostID], &cp)

	return nil
}

func (m *Memory) Comments(ctx context.Context, postID string) ([]*model.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	comments := make([]*model.Comment, 0, len(m.comments[postID]))
	for _, c := range m.comments[postID] {
		cp := *c
		comments = append(comments, &cp)
	}

	return comments, nil
}

func (m *Memory) Categories(ctx context.Context) ([]*model.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	categories := make([]*model.Category, 0, len(m.categories))
	for _, c := range m.categories {
		cp := *c
		categories = append(categories, &cp)
	}

	sort.Slice(categories, func(i, j int) bool {
		return categories[i].ID < categories[j].ID
	})

	return categories, nil
}

// AddUser, AddCategory and AddTag exist for fixtures and tests; the HTTP
// surface does not manage users or taxonomies.
func (m *Memory) AddUser(user *model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *user
	m.users[user.ID] = &cp
}

func (m *Memory) AddCategory(category *model.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *category
	m.categories[category.ID] = &cp
}

func (m *Memory) AddTag(tag *model.Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *tag
	m.tags[tag.ID] = &cp
}
