package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/tripsync/planner/internal/domain"
)

// NewTokenAuthMiddleware enforces Authorization: Bearer <token> against a
// static token-to-user table.
//
// A syntactically fine token that is not in the table gets SESSION_EXPIRED
// rather than a generic 401; that is the signal clients use to prompt for a
// fresh sign-in instead of endlessly retrying.
func NewTokenAuthMiddleware(tokens map[string]domain.UserID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Health endpoint stays unauthenticated for infra checks.
			if r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}

			authz := r.Header.Get("Authorization")
			if authz == "" {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing Authorization header", nil)
				return
			}
			const prefix = "Bearer "
			if !strings.HasPrefix(authz, prefix) {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "malformed Authorization header", nil)
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, prefix))
			if raw == "" {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token", nil)
				return
			}

			user, ok := tokens[raw]
			if !ok || user == 0 {
				writeError(w, r, http.StatusUnauthorized, "SESSION_EXPIRED", "token is not valid for any active session", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// NewDevAuthMiddleware is a local/dev-only auth shim.
//
// It takes the caller's user id from X-Planner-User and falls back to
// defaultUser when the header is absent. Do NOT use this in production
// deployments.
func NewDevAuthMiddleware(defaultUser domain.UserID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}

			user := defaultUser
			if h := strings.TrimSpace(r.Header.Get("X-Planner-User")); h != "" {
				id, err := strconv.ParseInt(h, 10, 64)
				if err != nil || id <= 0 {
					writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "X-Planner-User must be a positive user id", nil)
					return
				}
				user = domain.UserID(id)
			}
			if user == 0 {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing user (set X-Planner-User)", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
