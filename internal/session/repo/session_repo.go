package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-auth-telegram/internal/session/entity"
	"github.com/ovaphlow/pitchfork/service-auth-telegram/pkg/database"
)

type SessionRepo struct {
	db *sqlx.DB
}

func NewSessionRepo(db *sqlx.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// EnsureTable creates the sessions table keyed by token.
func (r *SessionRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS sessions (
  id VARCHAR(32) PRIMARY KEY,
  token TEXT NOT NULL UNIQUE,
  user_id VARCHAR(32) NOT NULL REFERENCES users(id),
  expires_at TIMESTAMPTZ NOT NULL,
  ip_address TEXT NOT NULL DEFAULT '',
  user_agent TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

func (r *SessionRepo) Save(ctx context.Context, s *entity.Session) error {
	const q = `INSERT INTO sessions (id, token, user_id, expires_at, ip_address, user_agent, created_at, updated_at)
		VALUES (:id, :token, :user_id, :expires_at, :ip_address, :user_agent, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, q, s)
	return database.Translate(err)
}

// GetByToken returns the session for token or sql.ErrNoRows.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*entity.Session, error) {
	const q = `SELECT id, token, user_id, expires_at, ip_address, user_agent, created_at, updated_at
		FROM sessions WHERE token = $1`
	var s entity.Session
	if err := r.db.GetContext(ctx, &s, q, token); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return err
}
