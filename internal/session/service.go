package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"

	"github.com/ovaphlow/pitchfork/service-auth-telegram/internal/session/entity"
	"github.com/ovaphlow/pitchfork/service-auth-telegram/pkg/utilities"
)

// Store persists sessions. *repo.SessionRepo is the postgres implementation.
type Store interface {
	Save(ctx context.Context, s *entity.Session) error
	GetByToken(ctx context.Context, token string) (*entity.Session, error)
	Delete(ctx context.Context, token string) error
}

type Config struct {
	Secret     string
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Meta describes the client a session is issued to.
type Meta struct {
	IPAddress string
	UserAgent string
}

// Manager issues opaque session tokens and carries them in a signed cookie.
type Manager struct {
	store Store
	key   []byte
	cfg   Config
	now   func() time.Time
}

func NewManager(store Store, cfg Config) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("session secret is required")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "session_token"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 7 * 24 * time.Hour
	}
	key, err := DeriveKey(cfg.Secret)
	if err != nil {
		return nil, err
	}
	return &Manager{store: store, key: key, cfg: cfg, now: time.Now}, nil
}

// DeriveKey expands the configured secret into the cookie signing key.
func DeriveKey(secret string) ([]byte, error) {
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("session-cookie"))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive cookie key: %w", err)
	}
	return key, nil
}

// Create persists a new session for userID.
func (m *Manager) Create(ctx context.Context, userID string, meta Meta) (*entity.Session, error) {
	tokBytes := make([]byte, 32)
	if _, err := rand.Read(tokBytes); err != nil {
		return nil, err
	}
	now := m.now().UTC()
	s := &entity.Session{
		ID:        utilities.NewKSUID(),
		Token:     base64.RawURLEncoding.EncodeToString(tokBytes),
		UserID:    userID,
		ExpiresAt: now.Add(m.cfg.TTL),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Lookup returns the live session for token, or nil when the token is empty,
// unknown or expired.
func (m *Manager) Lookup(ctx context.Context, token string) (*entity.Session, error) {
	if token == "" {
		return nil, nil
	}
	s, err := m.store.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if s.Expired(m.now()) {
		return nil, nil
	}
	return s, nil
}

// Revoke removes a session. Unknown tokens are not an error.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	return m.store.Delete(ctx, token)
}

// TokenFromRequest extracts the presented session token: the signed cookie
// first, then an `Authorization: Bearer` header. Returns "" when neither is valid.
func (m *Manager) TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(m.cfg.CookieName); err == nil && c.Value != "" {
		if tok, err := m.parseCookie(c.Value); err == nil {
			return tok
		}
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > len("bearer ") && strings.EqualFold(auth[:len("bearer ")], "bearer ") {
		return strings.TrimSpace(auth[len("bearer "):])
	}
	return ""
}

// SetCookie writes the signed session cookie for s.
func (m *Manager) SetCookie(w http.ResponseWriter, s *entity.Session) error {
	claims := jwt.MapClaims{
		"sid": s.Token,
		"sub": s.UserID,
		"iat": m.now().Unix(),
		"exp": s.ExpiresAt.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    signed,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearCookie expires the session cookie on the client.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) parseCookie(value string) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (any, error) {
		return m.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return "", err
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", errors.New("cookie without session id")
	}
	return sid, nil
}
