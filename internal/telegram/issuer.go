package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/ovaphlow/pitchfork/service-auth-telegram/internal/session"
	sessionentity "github.com/ovaphlow/pitchfork/service-auth-telegram/internal/session/entity"
	userentity "github.com/ovaphlow/pitchfork/service-auth-telegram/internal/user/entity"
)

// SessionStore is satisfied by *session.Manager. Lookup returns nil for an
// unknown or expired token.
type SessionStore interface {
	Lookup(ctx context.Context, token string) (*sessionentity.Session, error)
	Create(ctx context.Context, userID string, meta session.Meta) (*sessionentity.Session, error)
}

// Issuer reuses the caller's live session or mints a new one.
type Issuer struct {
	sessions SessionStore
}

func NewIssuer(sessions SessionStore) *Issuer {
	return &Issuer{sessions: sessions}
}

// Issue returns the session to answer with and whether it was just created.
// A presented session is reused only when it belongs to u.
func (i *Issuer) Issue(ctx context.Context, u *userentity.User, presentedToken string, meta session.Meta) (*sessionentity.Session, bool, error) {
	if presentedToken != "" {
		cur, err := i.sessions.Lookup(ctx, presentedToken)
		if err != nil {
			return nil, false, fmt.Errorf("read current session: %w", err)
		}
		if cur != nil && cur.UserID == u.ID {
			return cur, false, nil
		}
	}

	s, err := i.sessions.Create(ctx, u.ID, meta)
	if err == nil && s == nil {
		err = errors.New("no session returned")
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrSessionCreation, err)
	}
	return s, true, nil
}
