package repository

import (
	"database/sql/driver"
	"testing"
	"time"

	"mentorhub/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userColumns() []string {
	return []string{"id", "email", "password_hash", "full_name", "role", "email_verified", "is_active", "last_login_at", "created_at", "updated_at"}
}

func userRow(id int, email string) []driver.Value {
	now := time.Now()
	return []driver.Value{id, email, "$2a$10$hash", "Alice Example", "student", false, true, nil, now, now}
}

func TestUserRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("INSERT INTO users").
		WillReturnRows(sqlmock.NewRows(userColumns()).AddRow(userRow(1, "alice@example.com")...))

	created, err := repo.Create(&entity.User{
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$hash",
		FullName:     "Alice Example",
		Role:         entity.UserRoleStudent,
		IsActive:     true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, created.ID)
	assert.Equal(t, "alice@example.com", created.Email)
	assert.Equal(t, entity.UserRoleStudent, created.Role)
	assert.False(t, created.EmailVerified)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns()).AddRow(userRow(7, "alice@example.com")...))

	user, err := repo.GetByEmail("alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, 7, user.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns()))

	user, err := repo.GetByEmail("ghost@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows(userColumns()))

	user, err := repo.GetByID(99)
	require.NoError(t, err)
	assert.Nil(t, user)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_MarkEmailVerified(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec("UPDATE users").
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkEmailVerified(7))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_MarkEmailVerified_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec("UPDATE users").
		WithArgs(99).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkEmailVerified(99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user not found")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec("UPDATE users").
		WithArgs(7, "$2a$10$newhash").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdatePassword(7, "$2a$10$newhash"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateLastLogin_Inactive(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	// The guard skips deactivated accounts.
	mock.ExpectExec("UPDATE users").
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateLastLogin(7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found or inactive")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_SetActive(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec("UPDATE users").
		WithArgs(7, false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetActive(7, false))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(userRow(1, "alice@example.com")...).
			AddRow(userRow(2, "bob@example.com")...))

	users, total, err := repo.List(1, 20, "")
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, 2, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_List_WithSearch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("%ali%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("%ali%", 10, 10).
		WillReturnRows(sqlmock.NewRows(userColumns()).AddRow(userRow(1, "alice@example.com")...))

	users, total, err := repo.List(2, 10, "Ali")
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
