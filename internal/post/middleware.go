package post

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/SergeyParamoshkin/blogapi/internal/auth"
	"github.com/SergeyParamoshkin/blogapi/internal/errresponse"
	"github.com/SergeyParamoshkin/blogapi/internal/model"
	"github.com/SergeyParamoshkin/blogapi/internal/store"
)

type ctxKey int8

const ctxKeyPost ctxKey = iota

// Ctx middleware loads the Post from the URL parameter onto the request
// context, applying the visibility rule for the current viewer. Invisible
// drafts and missing posts both stop here with a 404.
func (rs *Resource) Ctx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		postID := chi.URLParam(r, "postID")
		if postID == "" {
			if err := render.Render(w, r, errresponse.ErrNotFound); err != nil {
				log.Println(err)
			}

			return
		}

		viewer := auth.FromContext(r.Context())
		post, err := rs.svc.Load(r.Context(), postID, viewer)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				if err := render.Render(w, r, errresponse.ErrNotFound); err != nil {
					log.Println(err)
				}

				return
			}

			rs.logger.Errorw("load post", "post", postID, "error", err)
			if err := render.Render(w, r, errresponse.ErrInternal(err)); err != nil {
				log.Println(err)
			}

			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyPost, post)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// postFromCtx returns the post loaded by Ctx. Handlers below Ctx can assume
// it is present; if not, the Recoverer middleware saves us.
func postFromCtx(ctx context.Context) *model.Post {
	return ctx.Value(ctxKeyPost).(*model.Post)
}
