package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/gpuconsole/pkg/slogx"
)

// Identity headers set by the gateway in front of the console API.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
)

// Actor is the caller identity attached to a request.
type Actor struct {
	UserID string
	Email  string
}

type ctxKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok && a.UserID != ""
}

// ActorMiddleware reads the identity headers and rejects requests without a
// user id. The headers are trusted as-is. The request logger gains an
// actor attribute.
func ActorMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a := Actor{
				UserID: strings.TrimSpace(r.Header.Get(HeaderUserID)),
				Email:  strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderUserEmail))),
			}
			if a.UserID == "" {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "missing "+HeaderUserID+" header")
				return
			}
			ctx := slogx.With(WithActor(r.Context(), a), "actor", a.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
