package repo

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-auth-telegram/internal/session/entity"
	"github.com/ovaphlow/pitchfork/service-auth-telegram/pkg/database"
)

func newMockRepo(t *testing.T) (*SessionRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSessionRepo(sqlx.NewDb(db, "postgres")), mock
}

func TestSessionRepo_Save(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs("s1", "tok", "u1", now.Add(time.Hour), "10.0.0.1", "ua", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := r.Save(context.Background(), &entity.Session{
		ID: "s1", Token: "tok", UserID: "u1", ExpiresAt: now.Add(time.Hour),
		IPAddress: "10.0.0.1", UserAgent: "ua", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_SaveDuplicateToken(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectExec(`INSERT INTO sessions`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "sessions_token_key"})

	err := r.Save(context.Background(), &entity.Session{ID: "s1", Token: "tok", UserID: "u1"})
	assert.ErrorIs(t, err, database.ErrConflict)
}

func TestSessionRepo_GetByToken(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM sessions WHERE token = \$1`).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"id", "token", "user_id", "expires_at", "ip_address", "user_agent", "created_at", "updated_at"}).
			AddRow("s1", "tok", "u1", now.Add(time.Hour), "", "", now, now))

	s, err := r.GetByToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "u1", s.UserID)
	assert.False(t, s.Expired(now))
}

func TestSessionRepo_GetByTokenMissing(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectQuery(`FROM sessions`).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := r.GetByToken(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSessionRepo_Delete(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectExec(`DELETE FROM sessions WHERE token = \$1`).
		WithArgs("tok").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.Delete(context.Background(), "tok"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
