package middleware

import (
	"net/http"

	"clinic-booking/internal/domain/entity"
	"clinic-booking/pkg/response"
)

// RequireRole must run after Authenticate, which puts the token's role in the
// request context.
func RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, role := range allowedRoles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetRoleFromContext(r.Context())
			if !ok {
				response.Unauthorized(w, "Authentication required")
				return
			}
			if _, ok := allowed[role]; !ok {
				response.Forbidden(w, "Admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(entity.RoleAdmin)(next)
}
