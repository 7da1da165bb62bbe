// Package auth resolves the current viewer identity. It is deliberately
// small: one token lookup against the user table plus a context carrier.
// Everything past "who is calling" belongs to the collaborating service.
package auth

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/SergeyParamoshkin/blogapi/internal/errresponse"
	"github.com/SergeyParamoshkin/blogapi/internal/model"
)

type CtxKey int8

const CtxKeyViewer CtxKey = iota

// Viewer is the resolved request identity: either an authenticated user or
// the anonymous zero value.
type Viewer struct {
	ID            int64
	Username      string
	Authenticated bool
}

// Anonymous is the viewer for requests without credentials.
var Anonymous = Viewer{}

// UserLookup is the slice of the durable store the middleware needs.
type UserLookup interface {
	UserByToken(ctx context.Context, token string) (*model.User, error)
}

// Middleware resolves "Authorization: Token <token>" into a Viewer on the
// request context. Absent header means anonymous; a present but unknown
// token is rejected rather than silently downgraded.
func Middleware(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), Anonymous)))

				return
			}

			token, ok := strings.CutPrefix(header, "Token ")
			if !ok {
				if err := render.Render(w, r, errresponse.ErrUnauthenticated); err != nil {
					log.Println(err)
				}

				return
			}

			user, err := users.UserByToken(r.Context(), token)
			if err != nil {
				if err := render.Render(w, r, errresponse.ErrUnauthenticated); err != nil {
					log.Println(err)
				}

				return
			}

			viewer := Viewer{ID: user.ID, Username: user.Username, Authenticated: true}
			next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), viewer)))
		})
	}
}

func WithViewer(ctx context.Context, viewer Viewer) context.Context {
	return context.WithValue(ctx, CtxKeyViewer, viewer)
}

// FromContext returns the viewer placed by Middleware, or Anonymous when
// the middleware did not run (direct service calls, tests).
func FromContext(ctx context.Context) Viewer {
	if viewer, ok := ctx.Value(CtxKeyViewer).(Viewer); ok {
		return viewer
	}

	return Anonymous
}

// RequireAuthenticated restricts a route subtree to authenticated viewers.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !FromContext(r.Context()).Authenticated {
			if err := render.Render(w, r, errresponse.ErrUnauthenticated); err != nil {
				log.Println(err)
			}

			return
		}
		next.ServeHTTP(w, r)
	})
}
