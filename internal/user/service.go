package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sessionentity "github.com/ovaphlow/pitchfork/service-auth-telegram/internal/session/entity"
	"github.com/ovaphlow/pitchfork/service-auth-telegram/internal/user/entity"
)

// SessionLookup resolves a token to a live session; *session.Manager
// implements it and returns nil for unknown or expired tokens.
type SessionLookup interface {
	Lookup(ctx context.Context, token string) (*sessionentity.Session, error)
}

// UserReader is implemented by *repo.UserRepo.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}

// Service answers "who is signed in" for a presented session token.
type Service struct {
	sessions SessionLookup
	users    UserReader
}

func NewService(sessions SessionLookup, users UserReader) *Service {
	return &Service{sessions: sessions, users: users}
}

// Current is the session/user pair behind a token.
type Current struct {
	Session *sessionentity.Session `json:"session"`
	User    *entity.User           `json:"user"`
}

// Current returns nil without error when the token does not map to a live
// session or the session's user no longer exists.
func (s *Service) Current(ctx context.Context, token string) (*Current, error) {
	sess, err := s.sessions.Lookup(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if sess == nil {
		return nil, nil
	}
	u, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &Current{Session: sess, User: u}, nil
}
