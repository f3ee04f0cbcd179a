package repository

import (
	"time"

	"mentorhub/entity"
)

// RateLimitRepository tracks OTP issuances per identity and purpose so
// the issuance quota can be enforced over a sliding window. The
// Postgres implementation counts the authoritative otps rows; the
// Redis implementation keeps its own per-pair sliding-window sets.
type RateLimitRepository interface {
	// CountSince returns how many issuances happened at or after the
	// given instant, plus the creation time of the oldest one in the
	// window (nil when the window is empty).
	CountSince(identity string, purpose entity.OTPPurpose, since time.Time) (int, *time.Time, error)
	// RecordIssuance notes a successful issuance at the given instant.
	RecordIssuance(identity string, purpose entity.OTPPurpose, at time.Time) error
	// Cleanup drops limiter state older than the given instant.
	Cleanup(olderThan time.Time) error
}
