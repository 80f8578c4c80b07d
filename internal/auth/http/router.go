// Package http wires the credential lifecycle services to their HTTP
// surface: registration, login, token rotation, logout, administrative
// revocation and the health probes.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/veil-id/veil/internal/auth/service"
	"github.com/veil-id/veil/internal/auth/session"
	"github.com/veil-id/veil/internal/auth/store"
	"github.com/veil-id/veil/pkg/httpx"
	"github.com/veil-id/veil/pkg/jwtx"
	"github.com/veil-id/veil/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	codec        *jwtx.Codec
	sessions     session.Store
	store        store.Store
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	Directory   *service.DirectoryService
	Credentials *service.CredentialService
}

func NewRouter(
	codec *jwtx.Codec,
	sessions session.Store,
	st store.Store,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		codec:        codec,
		sessions:     sessions,
		store:        st,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerLifecycle()
	r.registerAdmin()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// registerLifecycle mounts the credential endpoints. These handle the bearer
// token themselves instead of sitting behind the entry filter: a replayed
// rotation request carries an access token blacklisted by its own first
// rotation, and it must still reach the reuse-detection path rather than be
// cut off at the door.
func (r *Router) registerLifecycle() {
	registerHandler := &RegisterHandler{Directory: r.Directory, Credentials: r.Credentials}
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(registerHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	loginHandler := &LoginHandler{Directory: r.Directory, Credentials: r.Credentials}
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	refreshHandler := &RefreshHandler{Credentials: r.Credentials}
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(refreshHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	logoutHandler := &LogoutHandler{Credentials: r.Credentials}
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(logoutHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	revokeHandler := &RevokeTokenHandler{Credentials: r.Credentials}

	// Revocation needs an authenticated ADMIN caller; the entry filter
	// attaches the identity and the role check rejects everyone else.
	secured := httpx.Chain(revokeHandler,
		httpx.EntryFilter(r.codec, r.Blocklist()),
		httpx.RequireRole("ADMIN"),
		httpx.RateLimitByIdentity(httpx.ModerateLimit),
	)

	r.Mux.Handle("POST /v1/auth/revoke-token", secured)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.sessions),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

// Blocklist adapts the session store to the entry filter's revocation check.
func (r *Router) Blocklist() httpx.Blocklist {
	return blocklist{sessions: r.sessions}
}

type blocklist struct {
	sessions session.Store
}

func (b blocklist) IsBlocked(ctx context.Context, token string) (bool, error) {
	return b.sessions.Exists(ctx, session.BlacklistKey(token))
}
