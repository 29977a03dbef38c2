package telegram

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	accountentity "github.com/ovaphlow/pitchfork/service-auth-telegram/internal/account/entity"
	userentity "github.com/ovaphlow/pitchfork/service-auth-telegram/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-auth-telegram/pkg/database"
)

// UserStore is satisfied by *userrepo.UserRepo. Lookups return sql.ErrNoRows
// when absent; inserts return database.ErrConflict on a unique index hit.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*userentity.User, error)
	Create(ctx context.Context, u *userentity.User) error
	UpdateProfile(ctx context.Context, id string, p userentity.Profile) (*userentity.User, error)
}

// AccountStore is satisfied by *accountrepo.AccountRepo.
type AccountStore interface {
	Find(ctx context.Context, providerID, accountID string) (*accountentity.Account, error)
	Create(ctx context.Context, a *accountentity.Account) error
}

// Resolver maps a verified Telegram identity onto a local user and its
// linked account, creating either when missing.
type Resolver struct {
	users     UserStore
	accounts  AccountStore
	tempEmail TempEmailFunc
}

func NewResolver(users UserStore, accounts AccountStore, tempEmail TempEmailFunc) *Resolver {
	return &Resolver{users: users, accounts: accounts, tempEmail: tempEmail}
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	User        *userentity.User
	Account     *accountentity.Account
	UserCreated bool
}

func (r *Resolver) Resolve(ctx context.Context, p Payload) (*Resolution, error) {
	email := strings.ToLower(r.tempEmail(p.ID, p.username()))
	u, created, err := r.resolveUser(ctx, email, p)
	if err != nil {
		return nil, err
	}
	acc, err := r.link(ctx, u, p)
	if err != nil {
		return nil, err
	}
	return &Resolution{User: u, Account: acc, UserCreated: created}, nil
}

func (r *Resolver) resolveUser(ctx context.Context, email string, p Payload) (*userentity.User, bool, error) {
	existing, err := r.users.GetByEmail(ctx, email)
	if err == nil {
		u, err := r.users.UpdateProfile(ctx, existing.ID, userentity.Profile{
			Name:     p.DisplayName(),
			Image:    p.PhotoURL,
			Username: p.Username,
		})
		if err != nil {
			return nil, false, fmt.Errorf("update user: %w", err)
		}
		return u, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("find user: %w", err)
	}

	u := &userentity.User{
		Name:          p.DisplayName(),
		Email:         email,
		EmailVerified: true,
		Image:         p.PhotoURL,
		Username:      p.Username,
	}
	err = r.users.Create(ctx, u)
	if err == nil {
		return u, true, nil
	}
	if !errors.Is(err, database.ErrConflict) {
		return nil, false, fmt.Errorf("create user: %w", err)
	}
	// a concurrent first login inserted the same email first
	u, err = r.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, fmt.Errorf("reload user after conflict: %w", err)
	}
	return u, false, nil
}

func (r *Resolver) link(ctx context.Context, u *userentity.User, p Payload) (*accountentity.Account, error) {
	accountID := strconv.FormatInt(p.ID, 10)
	acc, err := r.accounts.Find(ctx, ProviderID, accountID)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find account: %w", err)
	}

	acc = &accountentity.Account{UserID: u.ID, AccountID: accountID, ProviderID: ProviderID}
	err = r.accounts.Create(ctx, acc)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, database.ErrConflict) {
		return nil, fmt.Errorf("create account: %w", err)
	}
	acc, err = r.accounts.Find(ctx, ProviderID, accountID)
	if err != nil {
		return nil, fmt.Errorf("reload account after conflict: %w", err)
	}
	return acc, nil
}
