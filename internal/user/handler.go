package user

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// TokenReader extracts the presented session token from a request.
type TokenReader interface {
	TokenFromRequest(r *http.Request) string
}

// Handler exposes the current-session endpoint.
type Handler struct {
	svc    *Service
	tokens TokenReader
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, tokens TokenReader, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, tokens: tokens, logger: logger}
}

// Session writes {"session":..., "user":...} or null when not signed in.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	cur, err := h.svc.Current(r.Context(), h.tokens.TokenFromRequest(r))
	if err != nil {
		h.logger.Errorw("get session failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "INTERNAL_SERVER_ERROR"})
		return
	}
	if cur == nil {
		h.writeJSON(w, http.StatusOK, nil)
		return
	}
	h.writeJSON(w, http.StatusOK, cur)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
