package postrequest

import (
	"errors"
	"net/http"

	"github.com/SergeyParamoshkin/blogapi/internal/model"
)

// PostRequest is the request payload for creating or updating a post. The
// author is never taken from the payload; it comes from the authenticated
// viewer. Fields are explicit rather than an embedded model so a client
// cannot mass-assign views or ownership.
type PostRequest struct {
	Title      string  `json:"title"`
	Body       string  `json:"body"`
	CategoryID *int64  `json:"category_id,omitempty"`
	TagIDs     []int64 `json:"tag_ids,omitempty"`
	Status     string  `json:"status,omitempty"`
}

func (p *PostRequest) Bind(r *http.Request) error {
	if p.Title == "" {
		return errors.New("missing required title field")
	}
	if p.Body == "" {
		return errors.New("missing required body field")
	}

	if p.Status == "" {
		p.Status = string(model.StatusPublished)
	}
	if p.Status != string(model.StatusDraft) && p.Status != string(model.StatusPublished) {
		return errors.New("status must be draft or published")
	}

	return nil
}

// Apply copies the bound fields onto a post.
func (p *PostRequest) Apply(post *model.Post) {
	post.Title = p.Title
	post.Body = p.Body
	post.CategoryID = p.CategoryID
	post.TagIDs = p.TagIDs
	post.Status = model.PostStatus(p.Status)
}

// CommentRequest is the request payload for posting a comment.
type CommentRequest struct {
	Body string `json:"body"`
}

func (c *CommentRequest) Bind(r *http.Request) error {
	if c.Body == "" {
		return errors.New("missing required body field")
	}

	return nil
}
