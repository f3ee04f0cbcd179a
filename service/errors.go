package service

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors callers branch on with errors.Is. Storage failures
// are wrapped separately so they never read as one of these.
var (
	ErrIdentityRequired       = errors.New("identity is required")
	ErrUnknownPurpose         = errors.New("unknown otp purpose")
	ErrEmailAlreadyRegistered = errors.New("email is already registered")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrEmailNotVerified       = errors.New("email is not verified")
	ErrAccountDisabled        = errors.New("account is disabled")
	ErrUserNotFound           = errors.New("user not found")
	ErrProfileNotFound        = errors.New("profile not found")
	ErrProgressNotFound       = errors.New("progress entry not found")
	ErrNotEntryOwner          = errors.New("progress entry belongs to another student")
	ErrAssessmentNotFound     = errors.New("no assessment has been submitted")
	ErrAssessmentRequired     = errors.New("complete the assessment before requesting matches")
	ErrTokenExpired           = errors.New("token has expired")
	ErrTokenInvalid           = errors.New("token is invalid")
)

// RateLimitError reports a denied issuance together with the wait until
// the sliding window clears. Rendered directly to clients as a 429.
type RateLimitError struct {
	RetryAfterSeconds int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many codes requested, retry in %s", time.Duration(e.RetryAfterSeconds)*time.Second)
}

// VerificationError carries a failed verification outcome through the
// auth flows. The message is specific on purpose: the requester already
// proved control of the inbox by starting the flow.
type VerificationError struct {
	Reason            VerifyReason
	AttemptsRemaining int
}

func (e *VerificationError) Error() string {
	switch e.Reason {
	case VerifyReasonExpired:
		return "verification code has expired, request a new one"
	case VerifyReasonTooManyAttempts:
		return "too many incorrect attempts, request a new code"
	case VerifyReasonCodeMismatch:
		if e.AttemptsRemaining <= 0 {
			return "incorrect verification code, no attempts remaining"
		}
		return fmt.Sprintf("incorrect verification code, %d attempts remaining", e.AttemptsRemaining)
	default:
		return "verification code not found, request a new one"
	}
}
