package http

import (
	"encoding/json"
	"net/http"

	"github.com/veil-id/veil/internal/auth/service"
	"github.com/veil-id/veil/pkg/httpx"
	"github.com/veil-id/veil/pkg/slogx"
)

// RefreshHandler serves POST /v1/auth/refresh. The old access token arrives
// in the Authorization header, the old refresh token in the body; a replay
// of an already-consumed refresh token gets a 401 and tears the session
// down.
type RefreshHandler struct {
	Credentials *service.CredentialService
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	access := httpx.BearerToken(r)
	if access == "" {
		writeData(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeData(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	pair, err := h.Credentials.Rotate(ctx, access, req.RefreshToken)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	writeData(w, http.StatusOK, "refreshed", pair)
}
