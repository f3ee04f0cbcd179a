package entity

import (
	"strings"
	"time"
)

// OTPPurpose distinguishes independent code streams for the same identity.
type OTPPurpose string

const (
	OTPPurposeEmailVerification OTPPurpose = "email_verification"
	OTPPurposePasswordReset     OTPPurpose = "password_reset"
)

// Valid reports whether the purpose is one of the defined values.
func (p OTPPurpose) Valid() bool {
	switch p {
	case OTPPurposeEmailVerification, OTPPurposePasswordReset:
		return true
	}
	return false
}

// OTPStatus is the lifecycle state of an issued code.
type OTPStatus string

const (
	OTPStatusPending  OTPStatus = "pending"
	OTPStatusVerified OTPStatus = "verified"
	OTPStatusExpired  OTPStatus = "expired"
	OTPStatusFailed   OTPStatus = "failed"
)

// OTP represents one issued one-time code. A code is only usable while
// status is pending, the expiry has not passed and attempts are below
// the ceiling; verified, expired and failed are terminal states.
type OTP struct {
	ID          int        `db:"id" json:"id"`
	Identity    string     `db:"identity" json:"identity"`
	Purpose     OTPPurpose `db:"purpose" json:"purpose"`
	Code        string     `db:"code" json:"-"`
	Status      OTPStatus  `db:"status" json:"status"`
	Attempts    int        `db:"attempts" json:"attempts"`
	MaxAttempts int        `db:"max_attempts" json:"max_attempts"`
	ExpiresAt   time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	VerifiedAt  *time.Time `db:"verified_at" json:"verified_at"`
	UserID      *int       `db:"user_id" json:"user_id"`
	IPAddress   *string    `db:"ip_address" json:"ip_address"`
	UserAgent   *string    `db:"user_agent" json:"user_agent"`
}

// TableName returns the table name for the OTP entity
func (OTP) TableName() string {
	return "otps"
}

// ExpiredAt reports whether the code is unusable at the given instant.
func (o *OTP) ExpiredAt(at time.Time) bool {
	return !at.Before(o.ExpiresAt)
}

// AttemptsExhausted reports whether the failed-attempt ceiling has been reached.
func (o *OTP) AttemptsExhausted() bool {
	return o.Attempts >= o.MaxAttempts
}

// NormalizeIdentity lowercases and trims an identity so lookups are
// case-insensitive. Identities are stored normalized.
func NormalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}
