package auth

import (
	"net/http"
	"strings"

	"github.com/testifyhub/testifyhub/internal/rbac"
)

// Middleware authenticates the bearer token and attaches the caller's
// identity and role to the request context.
func Middleware(s *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			claims, err := s.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				http.Error(w, "invalid access token", http.StatusUnauthorized)
				return
			}
			ctx := WithIdentity(r.Context(), Identity{UserID: claims.Sub, Role: claims.Role})
			ctx = rbac.WithRole(ctx, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
