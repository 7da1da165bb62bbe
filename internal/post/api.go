package post

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/SergeyParamoshkin/blogapi/internal/auth"
	"github.com/SergeyParamoshkin/blogapi/internal/errresponse"
	"github.com/SergeyParamoshkin/blogapi/internal/postrequest"
	"github.com/SergeyParamoshkin/blogapi/internal/postresponse"
	"github.com/SergeyParamoshkin/blogapi/internal/store"
)

// Resource holds the HTTP handlers for the posts collection.
type Resource struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewResource(svc *Service, logger *zap.SugaredLogger) *Resource {
	return &Resource{svc: svc, logger: logger}
}

// Routes mounts the posts surface.
func (rs *Resource) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", rs.List)
	r.With(auth.RequireAuthenticated).Post("/", rs.Create)

	r.Route("/{postID}", func(r chi.Router) {
		r.Use(rs.Ctx) // Load the *Post on the request context
		r.Get("/", rs.Get)
		r.Put("/", rs.Update)
		r.Delete("/", rs.Delete)
		r.Post("/like", rs.ToggleLike)
		r.Get("/comments", rs.ListComments)
		r.With(auth.RequireAuthenticated).Post("/comments", rs.CreateComment)
	})

	return r
}

// List returns the posts visible to the viewer: everything published plus
// the viewer's own drafts.
func (rs *Resource) List(w http.ResponseWriter, r *http.Request) {
	viewer := auth.FromContext(r.Context())

	posts, authors, err := rs.svc.List(r.Context(), viewer)
	if err != nil {
		rs.renderError(w, r, err)

		return
	}

	if err := render.RenderList(w, r, postresponse.NewPostListResponse(posts, authors)); err != nil {
		rs.renderFailure(w, r, err)
	}
}

// Create persists the posted fields as a new post authored by the viewer.
func (rs *Resource) Create(w http.ResponseWriter, r *http.Request) {
	data := &postrequest.PostRequest{}
	if err := render.Bind(r, data); err != nil {
		if err := render.Render(w, r, errresponse.ErrInvalidRequest(err)); err != nil {
			rs.logger.Errorw(err.Error())
		}

		return
	}

	viewer := auth.FromContext(r.Context())
	created, err := rs.svc.Create(r.Context(), viewer, data)
	if err != nil {
		rs.renderError(w, r, err)

		return
	}

	author, _ := rs.svc.store.UserByID(r.Context(), viewer.ID)

	render.Status(r, http.StatusCreated)
	if err := render.Render(w, r, postresponse.NewPostResponse(created, author)); err != nil {
		rs.renderFailure(w, r, err)
	}
}

// Get serves the merged detail page: the cached public payload with views,
// is_liked and like_count injected for this request.
func (rs *Resource) Get(w http.ResponseWriter, r *http.Request) {
	post := postFromCtx(r.Context())
	viewer := auth.FromContext(r.Context())

	detail, err := rs.svc.FetchDetail(r.Context(), post, viewer)
	if err != nil {
		rs.renderError(w, r, err)

		return
	}

	if err := render.Render(w, r, detail); err != nil {
		rs.renderFailure(w, r, err)
	}
}

// Update applies changes to an existing post and invalidates its cached
// detail payload.
func (rs *Resource) Update(w http.ResponseWriter, r *http.Request) {
	post := postFromCtx(r.Context())

	data := &postrequest.PostRequest{}
	if err := render.Bind(r, data); err != nil {
		if err := render.Render(w, r, errresponse.ErrInvalidRequest(err)); err != nil {
			rs.logger.Errorw(err.Error())
		}

		return
	}

	viewer := auth.FromContext(r.Context())
	updated, err := rs.svc.Update(r.Context(), post, viewer, data)
	if err != nil {
		rs.renderError(w, r, err)

		return
	}

	author, _ := rs.svc.store.UserByID(r.Context(), updated.AuthorID)

	if err := render.Render(w, r, postresponse.NewPostResponse(updated, author)); err != nil {
		rs.renderFailure(w, r, err)
	}
}

// Delete removes the post along with its cache shadows.
func (rs *Resource) Delete(w http.ResponseWriter, r *http.Request) {
	post := postFromCtx(r.Context())
	viewer := auth.FromContext(r.Context())

	if err := rs.svc.Delete(r.Context(), post, viewer); err != nil {
		rs.renderError(w, r, err)

		return
	}

	render.Status(r, http.StatusNoContent)
	render.NoContent(w, r)
}

// ToggleLike flips the viewer's like and returns the new count.
func (rs *Resource) ToggleLike(w http.ResponseWriter, r *http.Request) {
	post := postFromCtx(r.Context())
	viewer := auth.FromContext(r.Context())

	resp, err := rs.svc.ToggleLike(r.Context(), post, viewer)
	if err != nil {
		rs.renderError(w, r, err)

		return
	}

	if err := render.Render(w, r, resp); err != nil {
		rs.renderFailure(w, r, err)
	}
}

func (rs *Resource) ListComments(w http.ResponseWriter, r *http.Request) {
	post := postFromCtx(r.Context())

	comments, err := rs.svc.Comments(r.Context(), post)
	if err != nil {
		rs.renderError(w, r, err)

		return
	}

	if err := render.RenderList(w, r, postresponse.NewCommentListResponse(comments)); err != nil {
		rs.renderFailure(w, r, err)
	}
}

func (rs *Resource) CreateComment(w http.ResponseWriter, r *http.Request) {
	post := postFromCtx(r.Context())

	data := &postrequest.CommentRequest{}
	if err := render.Bind(r, data); err != nil {
		if err := render.Render(w, r, errresponse.ErrInvalidRequest(err)); err != nil {
			rs.logger.Errorw(err.Error())
		}

		return
	}

	viewer := auth.FromContext(r.Context())
	comment, err := rs.svc.AddComment(r.Context(), post, viewer, data)
	if err != nil {
		rs.renderError(w, r, err)

		return
	}

	render.Status(r, http.StatusCreated)
	if err := render.Render(w, r, &postresponse.CommentResponse{Comment: comment}); err != nil {
		rs.renderFailure(w, r, err)
	}
}

// Categories serves the category list; mounted at the router root.
func (rs *Resource) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := rs.svc.Categories(r.Context())
	if err != nil {
		rs.renderError(w, r, err)

		return
	}

	if err := render.RenderList(w, r, postresponse.NewCategoryListResponse(categories)); err != nil {
		rs.renderFailure(w, r, err)
	}
}

// renderError maps service errors onto the HTTP taxonomy.
func (rs *Resource) renderError(w http.ResponseWriter, r *http.Request, err error) {
	var renderer render.Renderer

	switch {
	case errors.Is(err, store.ErrNotFound):
		renderer = errresponse.ErrNotFound
	case errors.Is(err, ErrUnauthenticated):
		renderer = errresponse.ErrUnauthenticated
	case errors.Is(err, ErrPermissionDenied):
		renderer = errresponse.ErrForbidden
	default:
		rs.logger.Errorw("request failed", "path", r.URL.Path, "error", err)
		renderer = errresponse.ErrInternal(err)
	}

	if err := render.Render(w, r, renderer); err != nil {
		rs.logger.Errorw(err.Error())
	}
}

func (rs *Resource) renderFailure(w http.ResponseWriter, r *http.Request, err error) {
	if err := render.Render(w, r, errresponse.ErrRender(err)); err != nil {
		rs.logger.Errorw(err.Error())
	}
}
