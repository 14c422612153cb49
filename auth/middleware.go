package auth

import (
	"context"
	"net/http"
	"strings"

	"fitstake/errors"
)

type contextKey string

const userIDKey contextKey = "user_id"

// UserIDFromContext returns the authenticated user id injected by Middleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok
}

// WithUserID returns a context carrying the given user id. Used by the
// middleware and by tests that bypass HTTP.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// Middleware validates the JWT on incoming HTTP requests and injects
// the user identity into the request context for downstream handlers.
//
// The token travels in the standard "Authorization: Bearer <token>"
// header, or in a "token" query parameter for websocket upgrades where
// browsers cannot set headers.
func (m *TokenManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := bearerToken(r)
		if tokenStr == "" {
			http.Error(w, errors.ErrUnauthorized.Error(), http.StatusUnauthorized)
			return
		}

		claims, err := m.Validate(tokenStr)
		if err != nil {
			http.Error(w, errors.ErrUnauthorized.Error(), http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
	})
}

// bearerToken extracts the raw token from the request, header first.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
