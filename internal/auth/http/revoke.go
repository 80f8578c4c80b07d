package http

import (
	"encoding/json"
	"net/http"

	"github.com/veil-id/veil/internal/auth/service"
	"github.com/veil-id/veil/pkg/slogx"
)

// RevokeTokenHandler serves POST /v1/auth/revoke-token, the administrative
// kill switch for a single token of either kind. The route is mounted
// behind the ADMIN role check.
type RevokeTokenHandler struct {
	Credentials *service.CredentialService
}

type revokeRequest struct {
	Token string `json:"token"`
}

type revokeResponse struct {
	Revoked bool `json:"revoked"`
}

func (h *RevokeTokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req revokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeData(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	revoked, err := h.Credentials.Revoke(ctx, req.Token)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	log.Info("administrative revocation", "revoked", revoked)
	writeData(w, http.StatusOK, "done", revokeResponse{Revoked: revoked})
}
