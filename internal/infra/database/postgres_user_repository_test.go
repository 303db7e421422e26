package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specialization_alert_bot/internal/domain/user"
)

func newUserRepo(t *testing.T) (*PostgresUserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewPostgresUserRepository(db), mock
}

func TestUserCreateDuplicate(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: "users_username_key"})

	err := repo.Create(context.Background(), &user.User{Username: "admin", PasswordHash: "x", Role: user.RoleAdmin})
	assert.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestUserGetByUsername(t *testing.T) {
	repo, mock := newUserRepo(t)
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, username, .* FROM users WHERE username = \\$1").
		WithArgs("admin").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "email", "role", "created_at", "last_login"}).
			AddRow(1, "admin", "$2a$10$hash", "admin@example.com", "superuser", created, nil))

	u, err := repo.GetByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, user.RoleSuperuser, u.Role)
	assert.Nil(t, u.LastLogin)
}

func TestUserGetByUsernameNotFound(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("FROM users WHERE username").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserGetByIDNotFound(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("FROM users WHERE id = \\$1").WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserUpdate(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectExec("UPDATE users SET username = \\$1, email = \\$2, role = \\$3, password_hash = \\$4").
		WithArgs("ops", "ops@example.com", "admin", "$2a$10$hash", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), &user.User{ID: 3, Username: "ops", Email: "ops@example.com", Role: user.RoleAdmin, PasswordHash: "$2a$10$hash"})
	assert.NoError(t, err)
}

func TestUserUpdateDuplicateAndMissing(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectExec("UPDATE users").WillReturnError(&pq.Error{Code: uniqueViolation})
	mock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 0))

	u := &user.User{ID: 3, Username: "admin", Role: user.RoleUser}
	assert.ErrorIs(t, repo.Update(context.Background(), u), ErrDuplicateUsername)
	assert.ErrorIs(t, repo.Update(context.Background(), u), ErrUserNotFound)
}

func TestUserDelete(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectExec("DELETE FROM users WHERE id = \\$1").WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM users WHERE id = \\$1").WithArgs(int64(4)).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Delete(context.Background(), 3))
	assert.ErrorIs(t, repo.Delete(context.Background(), 4), ErrUserNotFound)
}
