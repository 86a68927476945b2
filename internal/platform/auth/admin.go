package auth

import (
	"net/http"

	"github.com/example/game-store/internal/platform/api"
	"github.com/example/game-store/internal/platform/httpserver"
)

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
)

// RequireRole allows the request only if RequireUser already injected one of
// roles into context. Comparison is case-insensitive.
func RequireRole(roles ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if HasRole(r.Context(), roles...) {
				next.ServeHTTP(w, r)
				return
			}
			api.Forbidden(w, "FORBIDDEN", "insufficient role", httpserver.RequestIDFromContext(r.Context()))
		})
	}
}
