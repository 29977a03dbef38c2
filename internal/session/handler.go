package session

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

type Handler struct {
	mgr    *Manager
	logger *zap.SugaredLogger
}

func NewHandler(mgr *Manager, logger *zap.SugaredLogger) *Handler {
	return &Handler{mgr: mgr, logger: logger}
}

// SignOut revokes the presented session and clears the cookie. It answers
// 200 even when no session was presented.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if tok := h.mgr.TokenFromRequest(r); tok != "" {
		if err := h.mgr.Revoke(r.Context(), tok); err != nil {
			h.logger.Warnw("session revoke failed", "err", err)
		}
	}
	h.mgr.ClearCookie(w)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
}
