package repository

import (
	"regexp"
	"testing"
	"time"

	"mentorhub/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func otpColumns() []string {
	return []string{"id", "identity", "purpose", "code", "status", "attempts", "max_attempts", "expires_at", "created_at", "verified_at", "user_id", "ip_address", "user_agent"}
}

func TestOTPRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOTPRepository(db)

	now := time.Now()
	expiresAt := now.Add(10 * time.Minute)

	mock.ExpectQuery("INSERT INTO otps").
		WillReturnRows(sqlmock.NewRows(otpColumns()).
			AddRow(1, "alice@example.com", "email_verification", "123456", "pending", 0, 5, expiresAt, now, nil, nil, nil, nil))

	created, err := repo.Create(&entity.OTP{
		Identity:    "alice@example.com",
		Purpose:     entity.OTPPurposeEmailVerification,
		Code:        "123456",
		Status:      entity.OTPStatusPending,
		MaxAttempts: 5,
		ExpiresAt:   expiresAt,
		CreatedAt:   now,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, created.ID)
	assert.Equal(t, "alice@example.com", created.Identity)
	assert.Equal(t, entity.OTPStatusPending, created.Status)
	assert.Nil(t, created.VerifiedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOTPRepository_GetLatestPending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOTPRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM otps").
		WithArgs("alice@example.com", entity.OTPPurposeEmailVerification).
		WillReturnRows(sqlmock.NewRows(otpColumns()).
			AddRow(3, "alice@example.com", "email_verification", "654321", "pending", 2, 5, now.Add(5*time.Minute), now, nil, nil, nil, nil))

	otp, err := repo.GetLatestPending("alice@example.com", entity.OTPPurposeEmailVerification)
	require.NoError(t, err)
	require.NotNil(t, otp)

	assert.Equal(t, 3, otp.ID)
	assert.Equal(t, "654321", otp.Code)
	assert.Equal(t, 2, otp.Attempts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOTPRepository_GetLatestPending_NoRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOTPRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM otps").
		WithArgs("alice@example.com", entity.OTPPurposeEmailVerification).
		WillReturnRows(sqlmock.NewRows(otpColumns()))

	otp, err := repo.GetLatestPending("alice@example.com", entity.OTPPurposeEmailVerification)
	require.NoError(t, err)
	assert.Nil(t, otp)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOTPRepository_ExpirePending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOTPRepository(db)

	mock.ExpectExec("UPDATE otps").
		WithArgs("alice@example.com", entity.OTPPurposeEmailVerification).
		WillReturnResult(sqlmock.NewResult(0, 2))

	affected, err := repo.ExpirePending("alice@example.com", entity.OTPPurposeEmailVerification)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOTPRepository_IncrementAttempts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOTPRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SET attempts = attempts + 1")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"attempts"}).AddRow(4))

	attempts, err := repo.IncrementAttempts(3)
	require.NoError(t, err)
	assert.Equal(t, 4, attempts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOTPRepository_IncrementAttempts_NotPending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOTPRepository(db)

	// The row was finished by a concurrent request; the status guard
	// leaves nothing to update.
	mock.ExpectQuery(regexp.QuoteMeta("SET attempts = attempts + 1")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"attempts"}))

	_, err := repo.IncrementAttempts(3)
	assert.ErrorIs(t, err, ErrNotPending)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOTPRepository_MarkVerified(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOTPRepository(db)

	mock.ExpectExec("UPDATE otps").
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkVerified(3))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOTPRepository_MarkVerified_NotPending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOTPRepository(db)

	mock.ExpectExec("UPDATE otps").
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.MarkVerified(3), ErrNotPending)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOTPRepository_MarkExpired_NotPending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOTPRepository(db)

	mock.ExpectExec("UPDATE otps").
		WithArgs(3, entity.OTPStatusExpired).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.MarkExpired(3), ErrNotPending)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOTPRepository_MarkFailed(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOTPRepository(db)

	mock.ExpectExec("UPDATE otps").
		WithArgs(3, entity.OTPStatusFailed).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkFailed(3))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOTPRepository_CountIssuedSince(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOTPRepository(db)

	since := time.Now().Add(-10 * time.Minute)
	oldest := time.Now().Add(-8 * time.Minute)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("alice@example.com", entity.OTPPurposeEmailVerification, since).
		WillReturnRows(sqlmock.NewRows([]string{"total", "oldest"}).AddRow(3, oldest))

	count, got, err := repo.CountIssuedSince("alice@example.com", entity.OTPPurposeEmailVerification, since)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	require.NotNil(t, got)
	assert.True(t, got.Equal(oldest))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOTPRepository_CountIssuedSince_EmptyWindow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOTPRepository(db)

	since := time.Now().Add(-10 * time.Minute)

	// MIN over zero rows is NULL.
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("alice@example.com", entity.OTPPurposeEmailVerification, since).
		WillReturnRows(sqlmock.NewRows([]string{"total", "oldest"}).AddRow(0, nil))

	count, oldest, err := repo.CountIssuedSince("alice@example.com", entity.OTPPurposeEmailVerification, since)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Nil(t, oldest)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOTPRepository_DeleteFinishedBefore(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOTPRepository(db)

	cutoff := time.Now().Add(-24 * time.Hour)
	mock.ExpectExec("DELETE FROM otps").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 4))

	deleted, err := repo.DeleteFinishedBefore(cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}
