package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"mentorhub/config"
	"mentorhub/entity"
	"mentorhub/pkg/logger"
	"mentorhub/repository"
)

// minCodeLength is the practical floor against brute forcing a code
// within the attempt ceiling.
const minCodeLength = 4

// IssueRequest carries everything needed to issue a fresh code.
type IssueRequest struct {
	Identity  string
	Purpose   entity.OTPPurpose
	UserID    *int
	IPAddress *string
	UserAgent *string
}

// IssueResult returns the plaintext code to the immediate caller, who
// hands it to the mailer. The code must not travel further up.
type IssueResult struct {
	Code      string
	ExpiresAt time.Time
}

// IssuanceDecision is the structured outcome of a rate-limit check.
type IssuanceDecision struct {
	Allowed           bool
	RetryAfterSeconds int
	Reason            string
}

// VerifyReason classifies a failed verification.
type VerifyReason string

const (
	VerifyReasonNotFound        VerifyReason = "not_found"
	VerifyReasonExpired         VerifyReason = "expired"
	VerifyReasonTooManyAttempts VerifyReason = "too_many_attempts"
	VerifyReasonCodeMismatch    VerifyReason = "code_mismatch"
)

// VerifyResult is the structured outcome of one verification attempt.
// Failure outcomes are results, not errors; errors mean the store broke.
type VerifyResult struct {
	Success           bool
	Reason            VerifyReason
	AttemptsRemaining int
	Record            *entity.OTP
}

// OTPService interface defines the code issuance and verification operations
type OTPService interface {
	CanIssue(identity string, purpose entity.OTPPurpose) (*IssuanceDecision, error)
	Issue(req IssueRequest) (*IssueResult, error)
	Verify(identity string, purpose entity.OTPPurpose, submittedCode string) (*VerifyResult, error)
	CleanupExpiredOTPs() error
}

// otpService implements OTPService interface
type otpService struct {
	otpRepo       repository.OTPRepository
	rateLimitRepo repository.RateLimitRepository
	cfg           *config.Config
	logger        *logger.Logger
	clock         Clock
}

// NewOTPService creates a new OTP service instance
func NewOTPService(otpRepo repository.OTPRepository, rateLimitRepo repository.RateLimitRepository, cfg *config.Config, logger *logger.Logger, clock Clock) OTPService {
	return &otpService{
		otpRepo:       otpRepo,
		rateLimitRepo: rateLimitRepo,
		cfg:           cfg,
		logger:        logger,
		clock:         clock,
	}
}

// CanIssue checks the sliding issuance window for the identity and
// purpose. Every issuance in the window counts, including codes that
// were since verified or expired. Callers run this before Issue; the
// two are not atomic, so concurrent requests may overshoot by one.
func (s *otpService) CanIssue(identity string, purpose entity.OTPPurpose) (*IssuanceDecision, error) {
	identity = entity.NormalizeIdentity(identity)
	if identity == "" {
		return nil, ErrIdentityRequired
	}
	if !purpose.Valid() {
		return nil, ErrUnknownPurpose
	}

	now := s.clock.Now()
	window := s.cfg.RateLimit.WindowDuration

	count, oldest, err := s.rateLimitRepo.CountSince(identity, purpose, now.Add(-window))
	if err != nil {
		s.logger.Errorw("Failed to read issuance window", "identity", identity, "purpose", purpose, "error", err)
		return nil, fmt.Errorf("failed to read issuance window: %w", err)
	}

	if count < s.cfg.RateLimit.MaxRequests {
		return &IssuanceDecision{Allowed: true}, nil
	}

	// The window slides: it clears when the oldest in-window issuance
	// ages out, not at a fixed bucket boundary.
	retryAfter := window
	if oldest != nil {
		retryAfter = oldest.Add(window).Sub(now)
	}
	retryAfterSeconds := int(math.Ceil(retryAfter.Seconds()))
	if retryAfterSeconds < 1 {
		retryAfterSeconds = 1
	}

	s.logger.Warnw("OTP issuance rate limited",
		"identity", identity,
		"purpose", purpose,
		"count", count,
		"retry_after_seconds", retryAfterSeconds)

	return &IssuanceDecision{
		Allowed:           false,
		RetryAfterSeconds: retryAfterSeconds,
		Reason:            fmt.Sprintf("maximum %d codes per %s reached", s.cfg.RateLimit.MaxRequests, window),
	}, nil
}

// Issue expires every pending code for the identity and purpose, then
// creates a fresh pending one. Returns the plaintext code; delivery is
// the caller's concern and never blocks the issued record.
func (s *otpService) Issue(req IssueRequest) (*IssueResult, error) {
	identity := entity.NormalizeIdentity(req.Identity)
	if identity == "" {
		return nil, ErrIdentityRequired
	}
	if !req.Purpose.Valid() {
		return nil, ErrUnknownPurpose
	}

	code, err := s.generateCode()
	if err != nil {
		s.logger.Errorw("Failed to generate OTP code", "error", err)
		return nil, err
	}

	now := s.clock.Now()

	if _, err := s.otpRepo.ExpirePending(identity, req.Purpose); err != nil {
		s.logger.Errorw("Failed to expire pending OTPs", "identity", identity, "purpose", req.Purpose, "error", err)
		return nil, fmt.Errorf("failed to expire pending OTPs: %w", err)
	}

	otp := &entity.OTP{
		Identity:    identity,
		Purpose:     req.Purpose,
		Code:        code,
		Status:      entity.OTPStatusPending,
		Attempts:    0,
		MaxAttempts: s.cfg.OTP.MaxAttempts,
		ExpiresAt:   now.Add(s.cfg.OTP.ExpirationTime),
		CreatedAt:   now,
		UserID:      req.UserID,
		IPAddress:   req.IPAddress,
		UserAgent:   req.UserAgent,
	}

	created, err := s.otpRepo.Create(otp)
	if err != nil {
		s.logger.Errorw("Failed to create OTP", "identity", identity, "purpose", req.Purpose, "error", err)
		return nil, fmt.Errorf("failed to create OTP: %w", err)
	}

	if err := s.rateLimitRepo.RecordIssuance(identity, req.Purpose, now); err != nil {
		// The code is already issued; a limiter running one behind is
		// the accepted cost.
		s.logger.Errorw("Failed to record issuance", "identity", identity, "purpose", req.Purpose, "error", err)
	}

	if s.cfg.Logger.Mode == "development" {
		fmt.Printf("🔐 OTP for %s (%s): %s (expires at %s)\n", identity, req.Purpose, code, created.ExpiresAt.Format("15:04:05"))
	}
	s.logger.Infow("OTP issued", "identity", identity, "purpose", req.Purpose, "otp_id", created.ID, "expires_at", created.ExpiresAt)

	return &IssueResult{
		Code:      code,
		ExpiresAt: created.ExpiresAt,
	}, nil
}

// Verify checks a submitted code against the latest pending record.
// Arms are evaluated in order, first match wins:
// missing record, expiry, exhausted attempts, mismatch, match.
func (s *otpService) Verify(identity string, purpose entity.OTPPurpose, submittedCode string) (*VerifyResult, error) {
	identity = entity.NormalizeIdentity(identity)
	if identity == "" {
		return nil, ErrIdentityRequired
	}
	if !purpose.Valid() {
		return nil, ErrUnknownPurpose
	}

	otp, err := s.otpRepo.GetLatestPending(identity, purpose)
	if err != nil {
		s.logger.Errorw("Failed to load pending OTP", "identity", identity, "purpose", purpose, "error", err)
		return nil, fmt.Errorf("failed to load pending OTP: %w", err)
	}

	if otp == nil {
		return &VerifyResult{Reason: VerifyReasonNotFound}, nil
	}

	now := s.clock.Now()

	if otp.ExpiredAt(now) {
		if err := s.otpRepo.MarkExpired(otp.ID); err != nil && !errors.Is(err, repository.ErrNotPending) {
			return nil, fmt.Errorf("failed to mark OTP expired: %w", err)
		}
		s.logger.Infow("OTP expired on verification", "identity", identity, "purpose", purpose, "otp_id", otp.ID)
		return &VerifyResult{Reason: VerifyReasonExpired}, nil
	}

	if otp.AttemptsExhausted() {
		if err := s.otpRepo.MarkFailed(otp.ID); err != nil && !errors.Is(err, repository.ErrNotPending) {
			return nil, fmt.Errorf("failed to mark OTP failed: %w", err)
		}
		s.logger.Warnw("OTP attempts exhausted", "identity", identity, "purpose", purpose, "otp_id", otp.ID)
		return &VerifyResult{Reason: VerifyReasonTooManyAttempts}, nil
	}

	if submittedCode != otp.Code {
		attempts, err := s.otpRepo.IncrementAttempts(otp.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotPending) {
				// Another request finished this record first.
				return &VerifyResult{Reason: VerifyReasonNotFound}, nil
			}
			return nil, fmt.Errorf("failed to count attempt: %w", err)
		}

		remaining := otp.MaxAttempts - attempts
		if remaining < 0 {
			remaining = 0
		}
		s.logger.Warnw("OTP code mismatch",
			"identity", identity,
			"purpose", purpose,
			"otp_id", otp.ID,
			"attempts", attempts,
			"max_attempts", otp.MaxAttempts)
		return &VerifyResult{Reason: VerifyReasonCodeMismatch, AttemptsRemaining: remaining}, nil
	}

	if err := s.otpRepo.MarkVerified(otp.ID); err != nil {
		if errors.Is(err, repository.ErrNotPending) {
			// Lost the race against a concurrent verification.
			return &VerifyResult{Reason: VerifyReasonNotFound}, nil
		}
		return nil, fmt.Errorf("failed to mark OTP verified: %w", err)
	}

	s.logger.Infow("OTP verified", "identity", identity, "purpose", purpose, "otp_id", otp.ID)
	return &VerifyResult{Success: true, Record: otp}, nil
}

// generateCode draws each digit independently from crypto/rand.
// Leading zeros are allowed.
func (s *otpService) generateCode() (string, error) {
	length := s.cfg.OTP.Length
	if length < minCodeLength {
		return "", fmt.Errorf("otp code length must be at least %d, got %d", minCodeLength, length)
	}

	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to draw random digit: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}

	return string(digits), nil
}

// CleanupExpiredOTPs deletes rows that are terminal or provably expired
// beyond the retention window, then lets the limiter tidy its own state.
// Live pending rows are never touched.
func (s *otpService) CleanupExpiredOTPs() error {
	cutoff := s.clock.Now().Add(-s.cfg.Cleanup.Retention)

	deleted, err := s.otpRepo.DeleteFinishedBefore(cutoff)
	if err != nil {
		s.logger.Errorw("Failed to delete finished OTPs", "error", err)
		return fmt.Errorf("failed to delete finished OTPs: %w", err)
	}
	if deleted > 0 {
		s.logger.Infow("Finished OTPs swept", "deleted", deleted, "cutoff", cutoff)
	}

	if err := s.rateLimitRepo.Cleanup(cutoff); err != nil {
		s.logger.Errorw("Failed to cleanup rate limiter state", "error", err)
		return fmt.Errorf("failed to cleanup rate limiter state: %w", err)
	}

	return nil
}
