package postresponse

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/SergeyParamoshkin/blogapi/internal/authorpayload"
	"github.com/SergeyParamoshkin/blogapi/internal/model"
)

const summaryRunes = 50

// DetailPayload is the public snapshot of a post that lives in the detail
// cache. It must never contain viewer-specific or fast-changing fields
// (views, is_liked, like_count); those are merged into the response at
// request time so the cached bytes stay valid across hits.
type DetailPayload struct {
	ID           string                       `json:"id"`
	Title        string                       `json:"title"`
	Summary      string                       `json:"summary"`
	Body         string                       `json:"body"`
	Author       *authorpayload.AuthorPayload `json:"author,omitempty"`
	Category     *model.Category              `json:"category,omitempty"`
	Tags         []model.Tag                  `json:"tags,omitempty"`
	Status       model.PostStatus             `json:"status"`
	CommentCount int64                        `json:"comment_count"`
	CreatedAt    time.Time                    `json:"created_at"`
}

// BuildDetailPayload serializes the public fields of a loaded post.
func BuildDetailPayload(rel *model.PostRelations) *DetailPayload {
	return &DetailPayload{
		ID:           rel.Post.ID,
		Title:        rel.Post.Title,
		Summary:      summarize(rel.Post.Body),
		Body:         rel.Post.Body,
		Author:       authorpayload.New(rel.Author),
		Category:     rel.Category,
		Tags:         rel.Tags,
		Status:       rel.Post.Status,
		CommentCount: rel.CommentCount,
		CreatedAt:    rel.Post.CreatedAt,
	}
}

func summarize(body string) string {
	runes := []rune(body)
	if len(runes) <= summaryRunes {
		return body
	}

	return string(runes[:summaryRunes]) + "..."
}

// PostDetailResponse is the merged detail page: the cached payload plus the
// per-request values from the counter and like-set shadows.
type PostDetailResponse struct {
	*DetailPayload

	Views     int64 `json:"views"`
	IsLiked   bool  `json:"is_liked"`
	LikeCount int64 `json:"like_count"`
}

func (rd *PostDetailResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// PostResponse is the list-item payload: summary instead of full body.
type PostResponse struct {
	ID        string                       `json:"id"`
	Title     string                       `json:"title"`
	Summary   string                       `json:"summary"`
	Author    *authorpayload.AuthorPayload `json:"author,omitempty"`
	Status    model.PostStatus             `json:"status"`
	Views     int64                        `json:"views"`
	CreatedAt time.Time                    `json:"created_at"`
}

func (rd *PostResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func NewPostResponse(post *model.Post, author *model.User) *PostResponse {
	return &PostResponse{
		ID:        post.ID,
		Title:     post.Title,
		Summary:   summarize(post.Body),
		Author:    authorpayload.New(author),
		Status:    post.Status,
		Views:     post.Views,
		CreatedAt: post.CreatedAt,
	}
}

func NewPostListResponse(posts []*model.Post, authors map[int64]*model.User) []render.Renderer {
	list := []render.Renderer{}
	for _, post := range posts {
		list = append(list, NewPostResponse(post, authors[post.AuthorID]))
	}

	return list
}

// LikeResponse acknowledges a toggle.
type LikeResponse struct {
	Message   string `json:"message"`
	Liked     bool   `json:"liked"`
	LikeCount int64  `json:"like_count"`
}

func (rd *LikeResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// CommentResponse wraps a stored comment.
type CommentResponse struct {
	*model.Comment
}

func (rd *CommentResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func NewCommentListResponse(comments []*model.Comment) []render.Renderer {
	list := []render.Renderer{}
	for _, c := range comments {
		list = append(list, &CommentResponse{Comment: c})
	}

	return list
}

// CategoryResponse wraps a category.
type CategoryResponse struct {
	*model.Category
}

func (rd *CategoryResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func NewCategoryListResponse(categories []*model.Category) []render.Renderer {
	list := []render.Renderer{}
	for _, c := range categories {
		list = append(list, &CategoryResponse{Category: c})
	}

	return list
}
