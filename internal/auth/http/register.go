package http

import (
	"encoding/json"
	"net/http"

	"github.com/veil-id/veil/internal/auth/domain"
	"github.com/veil-id/veil/internal/auth/service"
	"github.com/veil-id/veil/pkg/slogx"
)

// RegisterHandler serves POST /v1/auth/register. It mints a fresh identity
// and an initial token pair. The raw identity token in the response is the
// only copy that will ever exist; the service keeps hashes only.
type RegisterHandler struct {
	Directory   *service.DirectoryService
	Credentials *service.CredentialService
}

type registerRequest struct {
	Role string `json:"role"`
}

type registerResponse struct {
	IdentityToken string `json:"identity_token"`
	Role          string `json:"role"`
	AccessToken   string `json:"access_token"`
	RefreshToken  string `json:"refresh_token"`
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeData(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	role := domain.RoleUser
	if req.Role != "" {
		parsed, err := domain.ParseRole(req.Role)
		if err != nil {
			writeData(w, http.StatusBadRequest, "unknown role", nil)
			return
		}
		role = parsed
	}

	raw, ident, err := h.Directory.Register(ctx, role)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	pair, err := h.Credentials.Issue(ctx, raw, ident.Role)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	log.Info("identity registered", "identity_id", ident.ID, "role", ident.Role)
	writeData(w, http.StatusCreated, "registered", registerResponse{
		IdentityToken: raw,
		Role:          string(ident.Role),
		AccessToken:   pair.AccessToken,
		RefreshToken:  pair.RefreshToken,
	})
}
