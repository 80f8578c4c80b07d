package http

import (
	"encoding/json"
	"net/http"

	"github.com/veil-id/veil/internal/auth/service"
	"github.com/veil-id/veil/pkg/slogx"
)

// LoginHandler serves POST /v1/auth/login: a raw identity token in, a fresh
// token pair out. An unknown identity and a hash mismatch produce the same
// generic 401.
type LoginHandler struct {
	Directory   *service.DirectoryService
	Credentials *service.CredentialService
}

type loginRequest struct {
	IdentityToken string `json:"identity_token"`
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IdentityToken == "" {
		writeData(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	ident, err := h.Directory.FindByRaw(ctx, req.IdentityToken)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	pair, err := h.Credentials.Issue(ctx, req.IdentityToken, ident.Role)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	writeData(w, http.StatusOK, "authenticated", pair)
}
