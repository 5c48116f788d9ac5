package server

import (
	"context"
	"net/http"

	"github.com/playperu/superadmin/internal/auth"
)

type ctxKey int

const ctxKeyAdmin ctxKey = iota

const adminCookieName = "admin_session"

func adminAuthMiddleware(store auth.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(adminCookieName)
			if err != nil || cookie.Value == "" {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			id, err := store.Lookup(r.Context(), cookie.Value)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyAdmin, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func adminFrom(r *http.Request) auth.Identity {
	return r.Context().Value(ctxKeyAdmin).(auth.Identity)
}
