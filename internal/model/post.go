package model

import "time"

// PostStatus is the publication state of a Post.
type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusPublished PostStatus = "published"
)

// Post data model. The durable store owns this entity; the cache layer only
// ever holds derived shadow values (view counter, like set, detail payload)
// keyed by Post.ID.
type Post struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	AuthorID   int64      `json:"author_id"`
	CategoryID *int64     `json:"category_id,omitempty"`
	TagIDs     []int64    `json:"tag_ids,omitempty"`
	Status     PostStatus `json:"status"`
	Views      int64      `json:"views"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Visible reports whether the post may be shown to the given viewer:
// published posts are public, drafts only exist for their author.
func (p *Post) Visible(viewerID int64, authenticated bool) bool {
	if p.Status == StatusPublished {
		return true
	}

	return authenticated && p.AuthorID == viewerID
}

// PostRelations bundles everything the detail page needs besides the post
// row itself, loaded in one store round-trip.
type PostRelations struct {
	Post         *Post
	Author       *User
	Category     *Category
	Tags         []Tag
	CommentCount int64
}
