package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/veil-id/veil/pkg/jwtx"
	"github.com/veil-id/veil/pkg/slogx"
)

// Verifier checks a signed token and returns its claims.
type Verifier interface {
	Verify(token string) (jwtx.Claims, error)
}

// Blocklist answers whether a token has been revoked. Implementations must
// return an error (not false) when the underlying store is unreachable so
// the filter can fail closed.
type Blocklist interface {
	IsBlocked(ctx context.Context, token string) (bool, error)
}

// EntryFilter authenticates an optional bearer token. Per request:
//
//  1. No Authorization header: pass through unauthenticated; downstream
//     authorization decides.
//  2. Blocklist check before any signature work. A blocklisted token is
//     rejected outright even though its signature would still verify; a
//     store failure is a 503, never treated as "not blocked".
//  3. Signature/expiry check. Failure passes through unauthenticated
//     because public routes exist; protected routes reject via RequireRole.
//  4. Success attaches subject and role to the request context.
func EntryFilter(v Verifier, bl Blocklist) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			token := BearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			blocked, err := bl.IsBlocked(ctx, token)
			if err != nil {
				log.Error("blocklist check failed", "err", err)
				WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"message": "service unavailable",
				})
				return
			}
			if blocked {
				writeBearerError(w, "revoked token")
				return
			}

			claims, err := v.Verify(token)
			if err != nil {
				// Unverifiable is not an immediate rejection; the request
				// continues unauthenticated.
				next.ServeHTTP(w, r)
				return
			}

			ctx = context.WithValue(ctx, CtxKeyIdentity, claims.Subject)
			ctx = context.WithValue(ctx, CtxKeyRole, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the bearer token from the Authorization header, or ""
// when absent or malformed.
func BearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}
