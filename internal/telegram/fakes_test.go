package telegram

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	accountentity "github.com/ovaphlow/pitchfork/service-auth-telegram/internal/account/entity"
	"github.com/ovaphlow/pitchfork/service-auth-telegram/internal/session"
	sessionentity "github.com/ovaphlow/pitchfork/service-auth-telegram/internal/session/entity"
	userentity "github.com/ovaphlow/pitchfork/service-auth-telegram/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-auth-telegram/pkg/database"
)

type memUsers struct {
	mu      sync.Mutex
	byEmail map[string]*userentity.User
	seq     int
	calls   int
	getErr  error

	// raceOnCreate simulates a concurrent first login: Create stores a
	// competing row and then reports a unique violation.
	raceOnCreate bool
}

func newMemUsers() *memUsers { return &memUsers{byEmail: map[string]*userentity.User{}} }

func (s *memUsers) GetByEmail(_ context.Context, email string) (*userentity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.getErr != nil {
		return nil, s.getErr
	}
	u, ok := s.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (s *memUsers) Create(_ context.Context, u *userentity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.raceOnCreate {
		s.raceOnCreate = false
		s.seq++
		winner := *u
		winner.ID = "racer"
		s.byEmail[u.Email] = &winner
		return fmt.Errorf("%w: users_email_key", database.ErrConflict)
	}
	if _, ok := s.byEmail[u.Email]; ok {
		return fmt.Errorf("%w: users_email_key", database.ErrConflict)
	}
	s.seq++
	u.ID = fmt.Sprintf("u%d", s.seq)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	s.byEmail[u.Email] = &cp
	return nil
}

func (s *memUsers) UpdateProfile(_ context.Context, id string, p userentity.Profile) (*userentity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	for _, u := range s.byEmail {
		if u.ID != id {
			continue
		}
		u.Name = p.Name
		if p.Image != nil {
			u.Image = p.Image
		}
		if p.Username != nil {
			u.Username = p.Username
		}
		u.UpdatedAt = time.Now()
		cp := *u
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *memUsers) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byEmail)
}

type memAccounts struct {
	mu           sync.Mutex
	rows         map[string]*accountentity.Account
	calls        int
	raceOnCreate bool
}

func newMemAccounts() *memAccounts { return &memAccounts{rows: map[string]*accountentity.Account{}} }

func accountKey(providerID, accountID string) string { return providerID + "/" + accountID }

func (s *memAccounts) Find(_ context.Context, providerID, accountID string) (*accountentity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	a, ok := s.rows[accountKey(providerID, accountID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (s *memAccounts) Create(_ context.Context, a *accountentity.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	key := accountKey(a.ProviderID, a.AccountID)
	if s.raceOnCreate {
		s.raceOnCreate = false
		winner := *a
		winner.ID = "racer-account"
		s.rows[key] = &winner
		return fmt.Errorf("%w: accounts_provider_id_account_id_key", database.ErrConflict)
	}
	if _, ok := s.rows[key]; ok {
		return fmt.Errorf("%w: accounts_provider_id_account_id_key", database.ErrConflict)
	}
	a.ID = fmt.Sprintf("a%d", len(s.rows)+1)
	cp := *a
	s.rows[key] = &cp
	return nil
}

func (s *memAccounts) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// memSessionStore backs a real session.Manager.
type memSessionStore struct {
	mu      sync.Mutex
	rows    map[string]*sessionentity.Session
	saveErr error
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{rows: map[string]*sessionentity.Session{}}
}

func (s *memSessionStore) Save(_ context.Context, sess *sessionentity.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	cp := *sess
	s.rows[sess.Token] = &cp
	return nil
}

func (s *memSessionStore) GetByToken(_ context.Context, token string) (*sessionentity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.rows[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *sess
	return &cp, nil
}

func (s *memSessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, token)
	return nil
}

func (s *memSessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// nilSessions returns neither a session nor an error.
type nilSessions struct{}

func (nilSessions) Lookup(context.Context, string) (*sessionentity.Session, error) { return nil, nil }

func (nilSessions) Create(context.Context, string, session.Meta) (*sessionentity.Session, error) {
	return nil, nil
}

// stubSessions always issues a fresh session.
type stubSessions struct{}

func (stubSessions) Lookup(context.Context, string) (*sessionentity.Session, error) { return nil, nil }

func (stubSessions) Create(_ context.Context, userID string, _ session.Meta) (*sessionentity.Session, error) {
	return &sessionentity.Session{ID: "s1", Token: "tok", UserID: userID}, nil
}

var errBoom = errors.New("boom")
