package model

import "time"

// User data model.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
	Bio      string `json:"bio,omitempty"`

	// Token is the opaque API token the auth middleware resolves viewers
	// by. Never serialized.
	Token string `json:"-"`
}

// Category groups posts.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Tag labels posts, many to many.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Comment belongs to a post. Only the count participates in the cached
// detail payload; full comments are read straight from the store.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	AuthorID  int64     `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
