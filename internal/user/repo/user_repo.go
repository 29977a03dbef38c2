package repo

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-auth-telegram/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-auth-telegram/pkg/database"
	"github.com/ovaphlow/pitchfork/service-auth-telegram/pkg/utilities"
)

// UserRepo provides data access for users table using sqlx.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, name, email, email_verified, image, username, created_at, updated_at`

// EnsureTable creates the users table if not exists (idempotent).
// This is a convenience for early development; prefer migrations in production.
func (r *UserRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE EXTENSION IF NOT EXISTS citext;
CREATE TABLE IF NOT EXISTS users (
  id VARCHAR(32) PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '',
  email CITEXT NOT NULL UNIQUE,
  email_verified BOOLEAN NOT NULL DEFAULT false,
  image TEXT,
  username TEXT UNIQUE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Create inserts a new user row. ID and timestamps are filled in when empty.
// A duplicate email or username yields database.ErrConflict.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	if u.ID == "" {
		u.ID = utilities.NewSnowflakeID()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	u.Email = strings.ToLower(u.Email)
	u.Username = lowerPtr(u.Username)

	const q = `INSERT INTO users (id, name, email, email_verified, image, username, created_at, updated_at)
		VALUES (:id, :name, :email, :email_verified, :image, :username, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, q, u); err != nil {
		return database.Translate(err)
	}
	return nil
}

// GetByEmail returns a user matched by email (case-insensitive due to citext) or sql.ErrNoRows.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	var u entity.User
	if err := r.db.GetContext(ctx, &u, q, strings.ToLower(email)); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID fetches a user row or sql.ErrNoRows.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	var u entity.User
	if err := r.db.GetContext(ctx, &u, q, id); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile overwrites name and, when provided, image and username.
// Returns the row as stored after the update.
func (r *UserRepo) UpdateProfile(ctx context.Context, id string, p entity.Profile) (*entity.User, error) {
	const q = `UPDATE users SET name=$2, image=COALESCE($3, image), username=COALESCE($4, username), updated_at=NOW()
		WHERE id=$1 RETURNING ` + userColumns
	var u entity.User
	if err := r.db.GetContext(ctx, &u, q, id, p.Name, p.Image, lowerPtr(p.Username)); err != nil {
		return nil, database.Translate(err)
	}
	return &u, nil
}

func lowerPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToLower(*s)
	return &v
}
