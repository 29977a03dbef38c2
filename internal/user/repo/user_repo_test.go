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

	"github.com/ovaphlow/pitchfork/service-auth-telegram/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-auth-telegram/pkg/database"
)

func newMockRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepo(sqlx.NewDb(db, "postgres")), mock
}

var cols = []string{"id", "name", "email", "email_verified", "image", "username", "created_at", "updated_at"}

func strPtr(s string) *string { return &s }

func TestUserRepo_Create(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "Ann Lee", "42@telegram.local", true, nil, "annlee", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &entity.User{Name: "Ann Lee", Email: "42@Telegram.local", EmailVerified: true, Username: strPtr("AnnLee")}
	require.NoError(t, r.Create(context.Background(), u))

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "42@telegram.local", u.Email)
	assert.Equal(t, "annlee", *u.Username)
	assert.False(t, u.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_CreateConflict(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	err := r.Create(context.Background(), &entity.User{Name: "Ann", Email: "42@telegram.local"})
	assert.ErrorIs(t, err, database.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByEmail(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE email=\$1`).
		WithArgs("42@telegram.local").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("1", "Ann", "42@telegram.local", true, nil, nil, now, now))

	u, err := r.GetByEmail(context.Background(), "42@TELEGRAM.local")
	require.NoError(t, err)
	assert.Equal(t, "1", u.ID)
	assert.Nil(t, u.Image)
	assert.True(t, u.EmailVerified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByEmailMissing(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE email=\$1`).
		WithArgs("7@telegram.local").
		WillReturnRows(sqlmock.NewRows(cols))

	_, err := r.GetByEmail(context.Background(), "7@telegram.local")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUserRepo_UpdateProfile(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`UPDATE users SET name=\$2`).
		WithArgs("1", "Ann Lee", nil, "ann").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("1", "Ann Lee", "42@telegram.local", true, "https://t.me/i/ann.jpg", "ann", now, now))

	u, err := r.UpdateProfile(context.Background(), "1", entity.Profile{Name: "Ann Lee", Username: strPtr("Ann")})
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", u.Name)
	assert.Equal(t, "https://t.me/i/ann.jpg", *u.Image)
	assert.Equal(t, "ann", *u.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}
