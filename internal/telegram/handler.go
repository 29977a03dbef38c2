package telegram

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-telegram/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-auth-telegram/internal/session"
	sessionentity "github.com/ovaphlow/pitchfork/service-auth-telegram/internal/session/entity"
	userentity "github.com/ovaphlow/pitchfork/service-auth-telegram/internal/user/entity"
)

// CookieJar reads and writes the session cookie; *session.Manager implements it.
type CookieJar interface {
	TokenFromRequest(r *http.Request) string
	SetCookie(w http.ResponseWriter, s *sessionentity.Session) error
}

// Handler exposes the sign-in endpoints. Both routes share Service.SignIn and
// differ only in how input is read and how success is rendered.
type Handler struct {
	svc     *Service
	cookies CookieJar
	logger  *zap.SugaredLogger
}

func NewHandler(svc *Service, cookies CookieJar, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, cookies: cookies, logger: logger}
}

type signInResponse struct {
	Status bool             `json:"status"`
	Token  string           `json:"token"`
	User   *userentity.User `json:"user"`
}

// SignInJSON handles POST with a JSON body.
func (h *Handler) SignInJSON(w http.ResponseWriter, r *http.Request) {
	p, err := DecodeJSON(r.Body)
	if err != nil {
		h.rejectPayload(w, err)
		return
	}
	res, ok := h.signIn(w, r, p)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, signInResponse{Status: true, Token: res.Session.Token, User: res.User})
}

// SignInRedirect handles the widget's GET redirect. With a Referer it sends
// the browser back to the configured target or the referer origin; without
// one it answers like SignInJSON.
func (h *Handler) SignInRedirect(w http.ResponseWriter, r *http.Request) {
	p, err := ParseQuery(r.URL.Query())
	if err != nil {
		h.rejectPayload(w, err)
		return
	}
	res, ok := h.signIn(w, r, p)
	if !ok {
		return
	}
	if target := redirectTarget(h.svc.Redirect(), r.Referer()); target != "" {
		http.Redirect(w, r, target, http.StatusFound)
		return
	}
	h.writeJSON(w, http.StatusOK, signInResponse{Status: true, Token: res.Session.Token, User: res.User})
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, p Payload) (*Result, bool) {
	res, err := h.svc.SignIn(r.Context(), SignInRequest{
		Payload:        p,
		PresentedToken: h.cookies.TokenFromRequest(r),
		Meta:           session.Meta{IPAddress: clientIP(r), UserAgent: r.UserAgent()},
	})
	switch {
	case errors.Is(err, ErrInvalidSignature):
		metrics.SignInTotal.WithLabelValues(metrics.OutcomeInvalidSignature).Inc()
		h.logger.Debugw("telegram signature rejected", "telegram_id", p.ID)
		w.WriteHeader(http.StatusUnauthorized)
		return nil, false
	case errors.Is(err, ErrSessionCreation):
		metrics.SignInTotal.WithLabelValues(metrics.OutcomeSessionError).Inc()
		h.logger.Errorw("telegram sign-in session create failed", "telegram_id", p.ID, "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"message": reasonSessionCreation})
		return nil, false
	case err != nil:
		metrics.SignInTotal.WithLabelValues(metrics.OutcomeError).Inc()
		h.logger.Errorw("telegram sign-in failed", "telegram_id", p.ID, "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"message": reasonInternal})
		return nil, false
	}

	metrics.SignInTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	if res.UserCreated {
		metrics.UsersCreatedTotal.Inc()
	}
	if res.NewSession {
		if err := h.cookies.SetCookie(w, res.Session); err != nil {
			h.logger.Warnw("set session cookie failed", "user_id", res.User.ID, "err", err)
		}
	}
	h.logger.Infow("telegram sign-in",
		"telegram_id", p.ID,
		"user_id", res.User.ID,
		"user_created", res.UserCreated,
		"new_session", res.NewSession,
	)
	return res, true
}

func (h *Handler) rejectPayload(w http.ResponseWriter, err error) {
	metrics.SignInTotal.WithLabelValues(metrics.OutcomeInvalidPayload).Inc()
	h.logger.Debugw("invalid telegram payload", "err", err)
	h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// redirectTarget is empty without a referer. Otherwise the configured
// redirect wins, falling back to the referer's origin.
func redirectTarget(configured, referer string) string {
	if referer == "" {
		return ""
	}
	if configured != "" {
		return configured
	}
	u, err := url.Parse(referer)
	if err != nil || u.Host == "" {
		return ""
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + u.Host + "/"
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
