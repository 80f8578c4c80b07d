package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/veil-id/veil/internal/auth/service"
	"github.com/veil-id/veil/internal/auth/session"
	"github.com/veil-id/veil/pkg/httpx"
	"github.com/veil-id/veil/pkg/jwtx"
)

// envelope is the uniform response body: a human-readable message plus an
// optional payload.
type envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeData(w http.ResponseWriter, code int, message string, data any) {
	httpx.WriteJSON(w, code, envelope{Message: message, Data: data})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses. All
// credential failures collapse to one generic 401 body so a caller cannot
// probe which check failed; only infrastructure failures differ.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, session.ErrUnavailable):
		log.Error("session store unavailable", "err", err)
		writeData(w, http.StatusServiceUnavailable, "service unavailable", nil)
	case errors.Is(err, jwtx.ErrInvalidToken),
		errors.Is(err, jwtx.ErrExpired),
		errors.Is(err, jwtx.ErrClaimMissing),
		errors.Is(err, service.ErrIdentityNotFound),
		errors.Is(err, service.ErrReuseDetected):
		writeData(w, http.StatusUnauthorized, "unauthorized", nil)
	default:
		log.Error("internal error", "err", err)
		writeData(w, http.StatusInternalServerError, "internal error", nil)
	}
}
