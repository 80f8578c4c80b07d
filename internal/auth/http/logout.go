package http

import (
	"net/http"

	"github.com/veil-id/veil/internal/auth/service"
	"github.com/veil-id/veil/pkg/httpx"
	"github.com/veil-id/veil/pkg/slogx"
)

// LogoutHandler serves POST /v1/auth/logout. Logout is idempotent and
// best-effort: a missing or garbage token still gets a 200 because the
// caller's session is equally over either way. Only a store failure is an
// error.
type LogoutHandler struct {
	Credentials *service.CredentialService
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	access := httpx.BearerToken(r)

	ok, err := h.Credentials.Logout(ctx, access)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	if !ok {
		log.Info("logout with unverifiable token")
	}

	writeData(w, http.StatusOK, "logged out", nil)
}
