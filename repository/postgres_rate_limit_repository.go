package repository

import (
	"time"

	"mentorhub/entity"
)

// postgresRateLimitRepository enforces the issuance window directly on
// the otps table. Every issued code is already a row there, so the
// table is the limiter state and RecordIssuance has nothing to add.
type postgresRateLimitRepository struct {
	otpRepo OTPRepository
}

// NewPostgresRateLimitRepository creates a rate limit repository backed
// by the OTP table itself.
func NewPostgresRateLimitRepository(otpRepo OTPRepository) RateLimitRepository {
	return &postgresRateLimitRepository{
		otpRepo: otpRepo,
	}
}

// CountSince counts issuances in the window from the otps rows.
func (r *postgresRateLimitRepository) CountSince(identity string, purpose entity.OTPPurpose, since time.Time) (int, *time.Time, error) {
	return r.otpRepo.CountIssuedSince(identity, purpose, since)
}

// RecordIssuance is a no-op; the inserted OTP row is the record.
func (r *postgresRateLimitRepository) RecordIssuance(identity string, purpose entity.OTPPurpose, at time.Time) error {
	return nil
}

// Cleanup is a no-op; limiter state is swept together with the otps table.
func (r *postgresRateLimitRepository) Cleanup(olderThan time.Time) error {
	return nil
}
