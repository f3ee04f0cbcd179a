package test

import (
	"fmt"
	"os"
	"testing"
	"time"

	"mentorhub/entity"
	"mentorhub/migrations"
	"mentorhub/pkg/logger"
	"mentorhub/repository"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the plaintext behind every helper-created account.
const TestPassword = "Sup3rSecret"

// TestDB wraps a test database connection
type TestDB struct {
	DB *sqlx.DB
}

// SetupTestDB creates a test database and runs migrations
func SetupTestDB(t *testing.T) *TestDB {
	// Use environment variables or defaults for test database
	host := getEnvOrDefault("TEST_DB_HOST", "localhost")
	port := getEnvOrDefault("TEST_DB_PORT", "5432")
	user := getEnvOrDefault("TEST_DB_USER", "mentorhub")
	password := getEnvOrDefault("TEST_DB_PASSWORD", "mentorhub")

	// Get base database name and add _test suffix
	baseDBName := getEnvOrDefault("POSTGRES_DB", "mentorhub")
	dbName := getEnvOrDefault("TEST_DB_NAME", baseDBName+"_test")

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbName)

	db, err := sqlx.Connect("postgres", connStr)
	require.NoError(t, err, "Failed to connect to test database")

	// Run migrations - check multiple possible paths
	migrationPaths := []string{"./migrations", "../migrations", "/app/migrations"}
	for _, path := range migrationPaths {
		err = migrations.RunMigrations(db.DB, path)
		if err == nil {
			break
		}
	}
	require.NoError(t, err, "Failed to run test migrations")

	return &TestDB{DB: db}
}

// Close closes the test database connection
func (tdb *TestDB) Close() {
	if tdb.DB != nil {
		tdb.DB.Close()
	}
}

// CleanTables removes all data from tables (for test isolation)
func (tdb *TestDB) CleanTables(t *testing.T) {
	_, err := tdb.DB.Exec("TRUNCATE TABLE assessment_results, progress_entries, profiles, otps, users RESTART IDENTITY CASCADE")
	require.NoError(t, err, "Failed to clean test tables")
}

// CreateTestUser creates a verified, active user with TestPassword
func (tdb *TestDB) CreateTestUser(t *testing.T, email string, role entity.UserRole) *entity.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	require.NoError(t, err, "Failed to hash test password")

	user := &entity.User{
		Email:         email,
		PasswordHash:  string(hash),
		FullName:      "Test User",
		Role:          role,
		EmailVerified: true,
		IsActive:      true,
	}

	userRepo := repository.NewUserRepository(tdb.DB)
	createdUser, err := userRepo.Create(user)
	require.NoError(t, err, "Failed to create test user")

	return createdUser
}

// CreateUnverifiedUser creates a user that has registered but not confirmed the code yet
func (tdb *TestDB) CreateUnverifiedUser(t *testing.T, email string) *entity.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	require.NoError(t, err, "Failed to hash test password")

	user := &entity.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Test User",
		Role:         entity.UserRoleStudent,
		IsActive:     true,
	}

	userRepo := repository.NewUserRepository(tdb.DB)
	createdUser, err := userRepo.Create(user)
	require.NoError(t, err, "Failed to create test user")

	return createdUser
}

// CreateTestOTP creates a pending code for an identity
func (tdb *TestDB) CreateTestOTP(t *testing.T, identity string, purpose entity.OTPPurpose, code string, expiresAt time.Time) *entity.OTP {
	otp := &entity.OTP{
		Identity:    identity,
		Purpose:     purpose,
		Code:        code,
		Status:      entity.OTPStatusPending,
		MaxAttempts: 5,
		ExpiresAt:   expiresAt,
		CreatedAt:   time.Now(),
	}

	otpRepo := repository.NewOTPRepository(tdb.DB)
	createdOTP, err := otpRepo.Create(otp)
	require.NoError(t, err, "Failed to create test OTP")

	return createdOTP
}

// CreateExpiredOTP creates an already expired code for testing
func (tdb *TestDB) CreateExpiredOTP(t *testing.T, identity string, purpose entity.OTPPurpose, code string) *entity.OTP {
	return tdb.CreateTestOTP(t, identity, purpose, code, time.Now().Add(-5*time.Minute))
}

// CreateValidOTP creates a code that expires in 2 minutes
func (tdb *TestDB) CreateValidOTP(t *testing.T, identity string, purpose entity.OTPPurpose, code string) *entity.OTP {
	return tdb.CreateTestOTP(t, identity, purpose, code, time.Now().Add(2*time.Minute))
}

// SeedIssuanceHistory backdates count issuances inside the rate limit window
func (tdb *TestDB) SeedIssuanceHistory(t *testing.T, identity string, purpose entity.OTPPurpose, count int, spacing time.Duration) {
	for i := 0; i < count; i++ {
		createdAt := time.Now().Add(-time.Duration(i) * spacing)
		_, err := tdb.DB.Exec(
			`INSERT INTO otps (identity, purpose, code, status, attempts, max_attempts, expires_at, created_at)
			 VALUES ($1, $2, '000000', 'expired', 0, 5, $3, $3)`,
			identity, purpose, createdAt)
		require.NoError(t, err, "Failed to seed issuance history")
	}
}

// GetTestLogger creates a test logger
func GetTestLogger() *logger.Logger {
	log, err := logger.New("debug", "development")
	if err != nil {
		panic(fmt.Sprintf("Failed to create test logger: %v", err))
	}
	return log
}

// AssertUserExists asserts that a user exists with the given e-mail
func (tdb *TestDB) AssertUserExists(t *testing.T, email string) *entity.User {
	userRepo := repository.NewUserRepository(tdb.DB)
	user, err := userRepo.GetByEmail(email)
	require.NoError(t, err, "Failed to get user")
	require.NotNil(t, user, "User should exist")
	return user
}

// AssertUserCount asserts the total number of users in the database
func (tdb *TestDB) AssertUserCount(t *testing.T, expectedCount int) {
	var count int
	err := tdb.DB.Get(&count, "SELECT COUNT(*) FROM users")
	require.NoError(t, err, "Failed to count users")
	require.Equal(t, expectedCount, count, "User count mismatch")
}

// AssertOTPStatus asserts the stored status of a code
func (tdb *TestDB) AssertOTPStatus(t *testing.T, otpID int, expected entity.OTPStatus) {
	var status entity.OTPStatus
	err := tdb.DB.Get(&status, "SELECT status FROM otps WHERE id = $1", otpID)
	require.NoError(t, err, "Failed to get OTP status")
	require.Equal(t, expected, status, "OTP status mismatch")
}

// AssertEmailVerified asserts the verification flag on an account
func (tdb *TestDB) AssertEmailVerified(t *testing.T, email string, expected bool) {
	var verified bool
	err := tdb.DB.Get(&verified, "SELECT email_verified FROM users WHERE email = $1", email)
	require.NoError(t, err, "Failed to get verification flag")
	require.Equal(t, expected, verified, "E-mail verification flag mismatch")
}

// AssertLastLoginUpdated asserts that the user's last login timestamp was recently updated
func (tdb *TestDB) AssertLastLoginUpdated(t *testing.T, email string, within time.Duration) {
	var lastLoginAt *time.Time
	err := tdb.DB.Get(&lastLoginAt, "SELECT last_login_at FROM users WHERE email = $1", email)
	require.NoError(t, err, "Failed to get last login time")
	require.NotNil(t, lastLoginAt, "Last login should be set")

	timeSinceLogin := time.Since(*lastLoginAt)
	require.True(t, timeSinceLogin <= within,
		"Last login should be within %v, but was %v ago", within, timeSinceLogin)
}

// GetPendingOTPCount returns the number of pending, unexpired codes for an identity and purpose
func (tdb *TestDB) GetPendingOTPCount(t *testing.T, identity string, purpose entity.OTPPurpose) int {
	var count int
	err := tdb.DB.Get(&count,
		"SELECT COUNT(*) FROM otps WHERE identity = $1 AND purpose = $2 AND status = 'pending' AND expires_at > NOW()",
		identity, purpose)
	require.NoError(t, err, "Failed to count pending OTPs")
	return count
}

// GetTotalOTPCount returns the total number of codes issued for an identity
func (tdb *TestDB) GetTotalOTPCount(t *testing.T, identity string) int {
	var count int
	err := tdb.DB.Get(&count, "SELECT COUNT(*) FROM otps WHERE identity = $1", identity)
	require.NoError(t, err, "Failed to count total OTPs")
	return count
}

// WaitForDispatch waits a short period for asynchronous mail delivery to finish
func WaitForDispatch() {
	time.Sleep(100 * time.Millisecond)
}

// GenerateTestEmail generates a test e-mail address with optional suffix
func GenerateTestEmail(suffix string) string {
	if suffix == "" {
		return "student@example.com"
	}
	return fmt.Sprintf("student%s@example.com", suffix)
}

// GenerateTestOTPCode generates a test OTP code
func GenerateTestOTPCode(suffix string) string {
	if suffix == "" {
		return "123456"
	}
	return fmt.Sprintf("12345%s", suffix)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
