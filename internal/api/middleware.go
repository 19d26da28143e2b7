package api

import (
	"context"
	"net/http"
	"strings"
)

// TokenParser verifies a bearer token and returns the subject user ID.
type TokenParser interface {
	ParseToken(token string) (string, error)
}

// IdentityStore resolves a user ID to the identity attached to the request
// context. Returns nil (no error) when the user does not exist.
type IdentityStore interface {
	Identity(ctx context.Context, userID string) (*Identity, error)
}

// AuthMiddleware enforces `Authorization: Bearer <JWT>` and loads the caller
// into the request context. Tokens for deleted users are rejected.
func AuthMiddleware(tm TokenParser, store IdentityStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
				return
			}

			userID, err := tm.ParseToken(strings.TrimSpace(authz[7:]))
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
				return
			}

			id, err := store.Identity(r.Context(), userID)
			if err != nil {
				WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
				return
			}
			if id == nil {
				WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unknown user")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireRole gates a route group to one role. Must run after AuthMiddleware.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := IdentityFromContext(r.Context())
			if id == nil {
				WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
				return
			}
			if id.Role != role {
				WriteError(w, http.StatusForbidden, "FORBIDDEN", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
