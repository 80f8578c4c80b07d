package httpx

import "context"

type ctxKey string

const (
	CtxKeyIdentity ctxKey = "identity"
	CtxKeyRole     ctxKey = "role"
)

// IdentityFromContext returns the authenticated identity attached by the
// entry filter, or "" when the request is unauthenticated.
func IdentityFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyIdentity).(string); ok {
		return v
	}
	return ""
}

// RoleFromContext returns the authenticated role, or "".
func RoleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyRole).(string); ok {
		return v
	}
	return ""
}
