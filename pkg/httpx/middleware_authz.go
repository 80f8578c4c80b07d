package httpx

import "net/http"

// RequireRole rejects requests whose context does not carry the given role:
// 401 when unauthenticated, 403 when authenticated as something else.
func RequireRole(role string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			have := RoleFromContext(r.Context())
			if have == "" {
				writeBearerError(w, "authentication required")
				return
			}
			if have != role {
				writeBearerRoleError(w, role)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RFC 6750-compliant error response for insufficient privileges.
func writeBearerRoleError(w http.ResponseWriter, role string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+role+`"`)
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte("insufficient_role"))
}
