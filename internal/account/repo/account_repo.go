package repo

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-auth-telegram/internal/account/entity"
	"github.com/ovaphlow/pitchfork/service-auth-telegram/pkg/database"
	"github.com/ovaphlow/pitchfork/service-auth-telegram/pkg/utilities"
)

type AccountRepo struct {
	db *sqlx.DB
}

func NewAccountRepo(db *sqlx.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// EnsureTable creates the accounts table. One row per (provider_id, account_id).
func (r *AccountRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS accounts (
  id VARCHAR(32) PRIMARY KEY,
  user_id VARCHAR(32) NOT NULL REFERENCES users(id),
  account_id TEXT NOT NULL,
  provider_id TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  UNIQUE (provider_id, account_id)
);
CREATE INDEX IF NOT EXISTS idx_accounts_user_id ON accounts(user_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Find returns the account for a provider identity or sql.ErrNoRows.
func (r *AccountRepo) Find(ctx context.Context, providerID, accountID string) (*entity.Account, error) {
	const q = `SELECT id, user_id, account_id, provider_id, created_at, updated_at
		FROM accounts WHERE provider_id=$1 AND account_id=$2`
	var a entity.Account
	if err := r.db.GetContext(ctx, &a, q, providerID, accountID); err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a link row; database.ErrConflict when the identity is already linked.
func (r *AccountRepo) Create(ctx context.Context, a *entity.Account) error {
	if a.ID == "" {
		a.ID = utilities.NewKSUID()
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now

	const q = `INSERT INTO accounts (id, user_id, account_id, provider_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, q, a.ID, a.UserID, a.AccountID, a.ProviderID, a.CreatedAt, a.UpdatedAt)
	return database.Translate(err)
}
