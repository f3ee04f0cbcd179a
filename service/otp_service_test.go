package service

import (
	"sort"
	"sync"
	"testing"
	"time"

	"mentorhub/config"
	"mentorhub/entity"
	"mentorhub/pkg/logger"
	"mentorhub/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig returns a config with small, deterministic limits.
func testConfig() *config.Config {
	return &config.Config{
		Logger: config.Logger{Level: "error", Mode: "production"},
		JWT: config.JWT{
			Secret:         "test-secret",
			Issuer:         "mentorhub-test",
			ExpirationTime: time.Hour,
		},
		OTP: config.OTP{
			Length:         6,
			ExpirationTime: 10 * time.Minute,
			MaxAttempts:    5,
		},
		RateLimit: config.RateLimit{
			MaxRequests:    3,
			WindowDuration: 10 * time.Minute,
			Backend:        "postgres",
		},
		Cleanup: config.Cleanup{
			Schedule:  "@every 10m",
			Retention: 24 * time.Hour,
		},
	}
}

func testLogger(t *testing.T) *logger.Logger {
	log, err := logger.New("error", "production")
	require.NoError(t, err)
	return log
}

// fakeClock is a hand-advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memoryOTPRepo is an in-memory OTPRepository with the same guarded
// transition semantics as the Postgres implementation.
type memoryOTPRepo struct {
	mu     sync.Mutex
	nextID int
	rows   []*entity.OTP
}

func newMemoryOTPRepo() *memoryOTPRepo {
	return &memoryOTPRepo{}
}

func (r *memoryOTPRepo) Create(otp *entity.OTP) (*entity.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	stored := *otp
	stored.ID = r.nextID
	r.rows = append(r.rows, &stored)

	created := stored
	return &created, nil
}

func (r *memoryOTPRepo) GetLatestPending(identity string, purpose entity.OTPPurpose) (*entity.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest *entity.OTP
	for _, row := range r.rows {
		if row.Identity != identity || row.Purpose != purpose || row.Status != entity.OTPStatusPending {
			continue
		}
		if latest == nil || row.CreatedAt.After(latest.CreatedAt) ||
			(row.CreatedAt.Equal(latest.CreatedAt) && row.ID > latest.ID) {
			latest = row
		}
	}
	if latest == nil {
		return nil, nil
	}

	found := *latest
	return &found, nil
}

func (r *memoryOTPRepo) ExpirePending(identity string, purpose entity.OTPPurpose) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var affected int64
	for _, row := range r.rows {
		if row.Identity == identity && row.Purpose == purpose && row.Status == entity.OTPStatusPending {
			row.Status = entity.OTPStatusExpired
			affected++
		}
	}
	return affected, nil
}

func (r *memoryOTPRepo) IncrementAttempts(id int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.ID == id {
			if row.Status != entity.OTPStatusPending {
				return 0, repository.ErrNotPending
			}
			row.Attempts++
			return row.Attempts, nil
		}
	}
	return 0, repository.ErrNotPending
}

func (r *memoryOTPRepo) MarkVerified(id int) error {
	return r.finish(id, entity.OTPStatusVerified)
}

func (r *memoryOTPRepo) MarkExpired(id int) error {
	return r.finish(id, entity.OTPStatusExpired)
}

func (r *memoryOTPRepo) MarkFailed(id int) error {
	return r.finish(id, entity.OTPStatusFailed)
}

func (r *memoryOTPRepo) finish(id int, status entity.OTPStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.ID == id {
			if row.Status != entity.OTPStatusPending {
				return repository.ErrNotPending
			}
			row.Status = status
			if status == entity.OTPStatusVerified {
				now := time.Now()
				row.VerifiedAt = &now
			}
			return nil
		}
	}
	return repository.ErrNotPending
}

func (r *memoryOTPRepo) CountIssuedSince(identity string, purpose entity.OTPPurpose, since time.Time) (int, *time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	var oldest *time.Time
	for _, row := range r.rows {
		if row.Identity != identity || row.Purpose != purpose || row.CreatedAt.Before(since) {
			continue
		}
		count++
		if oldest == nil || row.CreatedAt.Before(*oldest) {
			created := row.CreatedAt
			oldest = &created
		}
	}
	return count, oldest, nil
}

func (r *memoryOTPRepo) DeleteFinishedBefore(cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var kept []*entity.OTP
	var deleted int64
	for _, row := range r.rows {
		finished := row.Status != entity.OTPStatusPending && row.CreatedAt.Before(cutoff)
		if finished || row.ExpiresAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	r.rows = kept
	return deleted, nil
}

// snapshot returns a copy of the stored row by id.
func (r *memoryOTPRepo) snapshot(t *testing.T, id int) entity.OTP {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.ID == id {
			return *row
		}
	}
	t.Fatalf("no OTP row with id %d", id)
	return entity.OTP{}
}

func (r *memoryOTPRepo) countByStatus(identity string, status entity.OTPStatus) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, row := range r.rows {
		if row.Identity == identity && row.Status == status {
			count++
		}
	}
	return count
}

func (r *memoryOTPRepo) totalFor(identity string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, row := range r.rows {
		if row.Identity == identity {
			count++
		}
	}
	return count
}

func newOTPServiceForTest(t *testing.T) (OTPService, *memoryOTPRepo, *fakeClock, *config.Config) {
	cfg := testConfig()
	repo := newMemoryOTPRepo()
	clock := newFakeClock()
	limiter := repository.NewPostgresRateLimitRepository(repo)
	svc := NewOTPService(repo, limiter, cfg, testLogger(t), clock)
	return svc, repo, clock, cfg
}

// wrongCodeFor flips the first digit so the result never matches.
func wrongCodeFor(code string) string {
	d := code[0]
	if d == '9' {
		d = '0'
	} else {
		d++
	}
	return string(d) + code[1:]
}

func TestIssue_GeneratesNumericCode(t *testing.T) {
	svc, _, clock, cfg := newOTPServiceForTest(t)

	issued, err := svc.Issue(IssueRequest{
		Identity: "alice@example.com",
		Purpose:  entity.OTPPurposeEmailVerification,
	})
	require.NoError(t, err)

	assert.Len(t, issued.Code, cfg.OTP.Length)
	for _, r := range issued.Code {
		assert.True(t, r >= '0' && r <= '9', "code must be digits only, got %q", issued.Code)
	}
	assert.True(t, issued.ExpiresAt.Equal(clock.Now().Add(cfg.OTP.ExpirationTime)))
}

func TestIssue_ReplacesPendingCode(t *testing.T) {
	svc, repo, _, _ := newOTPServiceForTest(t)

	_, err := svc.Issue(IssueRequest{Identity: "alice@example.com", Purpose: entity.OTPPurposeEmailVerification})
	require.NoError(t, err)
	_, err = svc.Issue(IssueRequest{Identity: "alice@example.com", Purpose: entity.OTPPurposeEmailVerification})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.countByStatus("alice@example.com", entity.OTPStatusPending))
	first := repo.snapshot(t, 1)
	assert.Equal(t, entity.OTPStatusExpired, first.Status)
}

func TestIssue_KeepsPurposesIndependent(t *testing.T) {
	svc, repo, _, _ := newOTPServiceForTest(t)

	_, err := svc.Issue(IssueRequest{Identity: "alice@example.com", Purpose: entity.OTPPurposeEmailVerification})
	require.NoError(t, err)
	_, err = svc.Issue(IssueRequest{Identity: "alice@example.com", Purpose: entity.OTPPurposePasswordReset})
	require.NoError(t, err)

	// The reset issuance must not displace the verification code.
	assert.Equal(t, 2, repo.countByStatus("alice@example.com", entity.OTPStatusPending))
}

func TestIssue_NormalizesIdentity(t *testing.T) {
	svc, repo, _, _ := newOTPServiceForTest(t)

	_, err := svc.Issue(IssueRequest{Identity: "  Alice@Example.COM ", Purpose: entity.OTPPurposeEmailVerification})
	require.NoError(t, err)

	row := repo.snapshot(t, 1)
	assert.Equal(t, "alice@example.com", row.Identity)
}

func TestIssue_ValidatesInput(t *testing.T) {
	svc, _, _, _ := newOTPServiceForTest(t)

	_, err := svc.Issue(IssueRequest{Identity: "   ", Purpose: entity.OTPPurposeEmailVerification})
	assert.ErrorIs(t, err, ErrIdentityRequired)

	_, err = svc.Issue(IssueRequest{Identity: "alice@example.com", Purpose: entity.OTPPurpose("telepathy")})
	assert.ErrorIs(t, err, ErrUnknownPurpose)
}

func TestIssue_RejectsShortConfiguredLength(t *testing.T) {
	cfg := testConfig()
	cfg.OTP.Length = 3
	repo := newMemoryOTPRepo()
	svc := NewOTPService(repo, repository.NewPostgresRateLimitRepository(repo), cfg, testLogger(t), newFakeClock())

	_, err := svc.Issue(IssueRequest{Identity: "alice@example.com", Purpose: entity.OTPPurposeEmailVerification})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least")
}

func TestVerify_HappyPath(t *testing.T) {
	svc, repo, _, _ := newOTPServiceForTest(t)

	issued, err := svc.Issue(IssueRequest{Identity: "alice@example.com", Purpose: entity.OTPPurposeEmailVerification})
	require.NoError(t, err)

	result, err := svc.Verify("alice@example.com", entity.OTPPurposeEmailVerification, issued.Code)
	require.NoError(t, err)
	assert.True(t, result.Success)
	require.NotNil(t, result.Record)

	row := repo.snapshot(t, result.Record.ID)
	assert.Equal(t, entity.OTPStatusVerified, row.Status)
	assert.NotNil(t, row.VerifiedAt)

	// A verified code is spent; replaying it finds nothing pending.
	replay, err := svc.Verify("alice@example.com", entity.OTPPurposeEmailVerification, issued.Code)
	require.NoError(t, err)
	assert.False(t, replay.Success)
	assert.Equal(t, VerifyReasonNotFound, replay.Reason)
}

func TestVerify_NoPendingCode(t *testing.T) {
	svc, _, _, _ := newOTPServiceForTest(t)

	result, err := svc.Verify("nobody@example.com", entity.OTPPurposeEmailVerification, "123456")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, VerifyReasonNotFound, result.Reason)
}

func TestVerify_ExpiredCode(t *testing.T) {
	svc, repo, clock, cfg := newOTPServiceForTest(t)

	issued, err := svc.Issue(IssueRequest{Identity: "alice@example.com", Purpose: entity.OTPPurposeEmailVerification})
	require.NoError(t, err)

	clock.Advance(cfg.OTP.ExpirationTime + time.Second)

	result, err := svc.Verify("alice@example.com", entity.OTPPurposeEmailVerification, issued.Code)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, VerifyReasonExpired, result.Reason)
	assert.Equal(t, entity.OTPStatusExpired, repo.snapshot(t, 1).Status)
}

func TestVerify_ExpiryBoundaryIsExclusive(t *testing.T) {
	svc, _, clock, cfg := newOTPServiceForTest(t)

	issued, err := svc.Issue(IssueRequest{Identity: "alice@example.com", Purpose: entity.OTPPurposeEmailVerification})
	require.NoError(t, err)

	// At exactly expires_at the code is already unusable.
	clock.Advance(cfg.OTP.ExpirationTime)

	result, err := svc.Verify("alice@example.com", entity.OTPPurposeEmailVerification, issued.Code)
	require.NoError(t, err)
	assert.Equal(t, VerifyReasonExpired, result.Reason)
}

func TestVerify_WrongCodeCountsDown(t *testing.T) {
	svc, _, _, cfg := newOTPServiceForTest(t)

	issued, err := svc.Issue(IssueRequest{Identity: "alice@example.com", Purpose: entity.OTPPurposeEmailVerification})
	require.NoError(t, err)
	wrong := wrongCodeFor(issued.Code)

	for attempt := 1; attempt <= cfg.OTP.MaxAttempts; attempt++ {
		result, err := svc.Verify("alice@example.com", entity.OTPPurposeEmailVerification, wrong)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, VerifyReasonCodeMismatch, result.Reason)
		assert.Equal(t, cfg.OTP.MaxAttempts-attempt, result.AttemptsRemaining)
	}
}

func TestVerify_CorrectCodeRefusedAfterExhaustion(t *testing.T) {
	svc, repo, _, cfg := newOTPServiceForTest(t)

	issued, err := svc.Issue(IssueRequest{Identity: "alice@example.com", Purpose: entity.OTPPurposeEmailVerification})
	require.NoError(t, err)
	wrong := wrongCodeFor(issued.Code)

	for i := 0; i < cfg.OTP.MaxAttempts; i++ {
		_, err := svc.Verify("alice@example.com", entity.OTPPurposeEmailVerification, wrong)
		require.NoError(t, err)
	}

	// The ceiling is reached but the record is still pending; the next
	// attempt reports exhaustion even with the right code.
	assert.Equal(t, entity.OTPStatusPending, repo.snapshot(t, 1).Status)

	result, err := svc.Verify("alice@example.com", entity.OTPPurposeEmailVerification, issued.Code)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, VerifyReasonTooManyAttempts, result.Reason)
	assert.Equal(t, entity.OTPStatusFailed, repo.snapshot(t, 1).Status)
}

func TestVerify_ValidatesInput(t *testing.T) {
	svc, _, _, _ := newOTPServiceForTest(t)

	_, err := svc.Verify("", entity.OTPPurposeEmailVerification, "123456")
	assert.ErrorIs(t, err, ErrIdentityRequired)

	_, err = svc.Verify("alice@example.com", entity.OTPPurpose("telepathy"), "123456")
	assert.ErrorIs(t, err, ErrUnknownPurpose)
}

func TestCanIssue_AllowsUnderLimit(t *testing.T) {
	svc, _, _, _ := newOTPServiceForTest(t)

	decision, err := svc.CanIssue("alice@example.com", entity.OTPPurposeEmailVerification)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Zero(t, decision.RetryAfterSeconds)
}

func TestCanIssue_DeniesAtWindowLimit(t *testing.T) {
	svc, _, clock, cfg := newOTPServiceForTest(t)

	for i := 0; i < cfg.RateLimit.MaxRequests; i++ {
		_, err := svc.Issue(IssueRequest{Identity: "alice@example.com", Purpose: entity.OTPPurposeEmailVerification})
		require.NoError(t, err)
		clock.Advance(time.Minute)
	}

	// Oldest issuance is 3 minutes old; the window clears when it turns 10.
	decision, err := svc.CanIssue("alice@example.com", entity.OTPPurposeEmailVerification)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, int((7 * time.Minute).Seconds()), decision.RetryAfterSeconds)
	assert.Contains(t, decision.Reason, "maximum 3")
}

func TestCanIssue_WindowSlides(t *testing.T) {
	svc, _, clock, cfg := newOTPServiceForTest(t)

	start := clock.Now()
	for i := 0; i < cfg.RateLimit.MaxRequests; i++ {
		_, err := svc.Issue(IssueRequest{Identity: "alice@example.com", Purpose: entity.OTPPurposeEmailVerification})
		require.NoError(t, err)
		clock.Advance(time.Minute)
	}

	// Just before the oldest issuance ages out the wait is clamped to 1s.
	clock.Advance(start.Add(cfg.RateLimit.WindowDuration).Sub(clock.Now()))
	decision, err := svc.CanIssue("alice@example.com", entity.OTPPurposeEmailVerification)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 1, decision.RetryAfterSeconds)

	clock.Advance(time.Second)
	decision, err = svc.CanIssue("alice@example.com", entity.OTPPurposeEmailVerification)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestCanIssue_CountsFinishedIssuances(t *testing.T) {
	svc, _, _, cfg := newOTPServiceForTest(t)

	issued, err := svc.Issue(IssueRequest{Identity: "alice@example.com", Purpose: entity.OTPPurposeEmailVerification})
	require.NoError(t, err)
	result, err := svc.Verify("alice@example.com", entity.OTPPurposeEmailVerification, issued.Code)
	require.NoError(t, err)
	require.True(t, result.Success)

	for i := 0; i < cfg.RateLimit.MaxRequests-1; i++ {
		_, err := svc.Issue(IssueRequest{Identity: "alice@example.com", Purpose: entity.OTPPurposeEmailVerification})
		require.NoError(t, err)
	}

	// A verified code still used up its slot in the window.
	decision, err := svc.CanIssue("alice@example.com", entity.OTPPurposeEmailVerification)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestCanIssue_TracksPurposesSeparately(t *testing.T) {
	svc, _, _, cfg := newOTPServiceForTest(t)

	for i := 0; i < cfg.RateLimit.MaxRequests; i++ {
		_, err := svc.Issue(IssueRequest{Identity: "alice@example.com", Purpose: entity.OTPPurposeEmailVerification})
		require.NoError(t, err)
	}

	decision, err := svc.CanIssue("alice@example.com", entity.OTPPurposePasswordReset)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestCleanupExpiredOTPs(t *testing.T) {
	svc, repo, clock, _ := newOTPServiceForTest(t)
	now := clock.Now()

	rows := []*entity.OTP{
		{Identity: "a@example.com", Purpose: entity.OTPPurposeEmailVerification, Code: "111111", Status: entity.OTPStatusVerified, MaxAttempts: 5, CreatedAt: now.Add(-30 * time.Hour), ExpiresAt: now.Add(-30 * time.Hour).Add(10 * time.Minute)},
		{Identity: "b@example.com", Purpose: entity.OTPPurposeEmailVerification, Code: "222222", Status: entity.OTPStatusExpired, MaxAttempts: 5, CreatedAt: now.Add(-25 * time.Hour), ExpiresAt: now.Add(-25 * time.Hour).Add(10 * time.Minute)},
		{Identity: "c@example.com", Purpose: entity.OTPPurposePasswordReset, Code: "333333", Status: entity.OTPStatusPending, MaxAttempts: 5, CreatedAt: now.Add(-26 * time.Hour), ExpiresAt: now.Add(-26 * time.Hour).Add(10 * time.Minute)},
		{Identity: "d@example.com", Purpose: entity.OTPPurposeEmailVerification, Code: "444444", Status: entity.OTPStatusPending, MaxAttempts: 5, CreatedAt: now, ExpiresAt: now.Add(10 * time.Minute)},
		{Identity: "e@example.com", Purpose: entity.OTPPurposeEmailVerification, Code: "555555", Status: entity.OTPStatusFailed, MaxAttempts: 5, CreatedAt: now.Add(-time.Hour), ExpiresAt: now.Add(-50 * time.Minute)},
	}
	for _, row := range rows {
		_, err := repo.Create(row)
		require.NoError(t, err)
	}

	require.NoError(t, svc.CleanupExpiredOTPs())

	// The stale terminal rows and the long-expired pending row are gone;
	// the live pending row and the recent failed row survive.
	var kept []string
	for _, identity := range []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com", "e@example.com"} {
		if repo.totalFor(identity) > 0 {
			kept = append(kept, identity)
		}
	}
	sort.Strings(kept)
	assert.Equal(t, []string{"d@example.com", "e@example.com"}, kept)
}
