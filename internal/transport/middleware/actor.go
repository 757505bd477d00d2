package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/geonho/vocautobot-backend/pkg/ctxutil"
)

// Actor reads the authenticated principal from the X-User-Id and
// X-User-Name headers set by the upstream gateway and stores it in the
// context. Requests without a valid user id proceed anonymously; handlers
// that require an actor reject those themselves.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.Header.Get("X-User-Id"))
		if err == nil && id != uuid.Nil {
			ctx := ctxutil.WithActor(r.Context(), ctxutil.Actor{
				UserID:   id,
				Username: r.Header.Get("X-User-Name"),
			})
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}
