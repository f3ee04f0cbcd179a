package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mentorhub/entity"

	"github.com/jmoiron/sqlx"
)

// ErrNotPending is returned by guarded status updates when the targeted
// row is missing or no longer pending. Concurrent verifications race on
// the same row; the guard makes sure only one transition wins.
var ErrNotPending = errors.New("otp is not pending")

// OTPRepository interface defines OTP data operations
type OTPRepository interface {
	Create(otp *entity.OTP) (*entity.OTP, error)
	GetLatestPending(identity string, purpose entity.OTPPurpose) (*entity.OTP, error)
	ExpirePending(identity string, purpose entity.OTPPurpose) (int64, error)
	IncrementAttempts(id int) (int, error)
	MarkVerified(id int) error
	MarkExpired(id int) error
	MarkFailed(id int) error
	CountIssuedSince(identity string, purpose entity.OTPPurpose, since time.Time) (int, *time.Time, error)
	DeleteFinishedBefore(cutoff time.Time) (int64, error)
}

// otpRepository implements OTPRepository interface
type otpRepository struct {
	db *sqlx.DB
}

// NewOTPRepository creates a new OTP repository instance
func NewOTPRepository(db *sqlx.DB) OTPRepository {
	return &otpRepository{
		db: db,
	}
}

// Create inserts a new OTP row. The caller fills code, status, expiry
// and created_at; nothing is defaulted here.
func (r *otpRepository) Create(otp *entity.OTP) (*entity.OTP, error) {
	query := `
		INSERT INTO otps (identity, purpose, code, status, attempts, max_attempts, expires_at, created_at, user_id, ip_address, user_agent)
		VALUES (:identity, :purpose, :code, :status, :attempts, :max_attempts, :expires_at, :created_at, :user_id, :ip_address, :user_agent)
		RETURNING id, identity, purpose, code, status, attempts, max_attempts, expires_at, created_at, verified_at, user_id, ip_address, user_agent
	`

	rows, err := r.db.NamedQuery(query, otp)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTP: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("failed to get created OTP")
	}

	var createdOTP entity.OTP
	if err := rows.StructScan(&createdOTP); err != nil {
		return nil, fmt.Errorf("failed to scan created OTP: %w", err)
	}

	return &createdOTP, nil
}

// GetLatestPending retrieves the most recently created pending OTP for
// the identity and purpose. Returns nil when there is none.
func (r *otpRepository) GetLatestPending(identity string, purpose entity.OTPPurpose) (*entity.OTP, error) {
	query := `
		SELECT id, identity, purpose, code, status, attempts, max_attempts, expires_at, created_at, verified_at, user_id, ip_address, user_agent
		FROM otps
		WHERE identity = $1 AND purpose = $2 AND status = 'pending'
		ORDER BY created_at DESC
		LIMIT 1
	`

	var otp entity.OTP
	err := r.db.Get(&otp, query, identity, purpose)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pending OTP: %w", err)
	}

	return &otp, nil
}

// ExpirePending marks every pending OTP for the identity and purpose as
// expired and returns how many rows changed.
func (r *otpRepository) ExpirePending(identity string, purpose entity.OTPPurpose) (int64, error) {
	query := `
		UPDATE otps
		SET status = 'expired'
		WHERE identity = $1 AND purpose = $2 AND status = 'pending'
	`

	result, err := r.db.Exec(query, identity, purpose)
	if err != nil {
		return 0, fmt.Errorf("failed to expire pending OTPs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// IncrementAttempts adds one failed attempt to a pending OTP and
// returns the new count. The status guard keeps concurrent increments
// from touching a row another request already finished.
func (r *otpRepository) IncrementAttempts(id int) (int, error) {
	query := `
		UPDATE otps
		SET attempts = attempts + 1
		WHERE id = $1 AND status = 'pending'
		RETURNING attempts
	`

	var attempts int
	err := r.db.Get(&attempts, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrNotPending
		}
		return 0, fmt.Errorf("failed to increment OTP attempts: %w", err)
	}

	return attempts, nil
}

// MarkVerified finishes a pending OTP as verified and stamps verified_at.
func (r *otpRepository) MarkVerified(id int) error {
	query := `
		UPDATE otps
		SET status = 'verified', verified_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to mark OTP as verified: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotPending
	}

	return nil
}

// MarkExpired finishes a pending OTP as expired.
func (r *otpRepository) MarkExpired(id int) error {
	return r.finishPending(id, entity.OTPStatusExpired)
}

// MarkFailed finishes a pending OTP as failed.
func (r *otpRepository) MarkFailed(id int) error {
	return r.finishPending(id, entity.OTPStatusFailed)
}

func (r *otpRepository) finishPending(id int, status entity.OTPStatus) error {
	query := `
		UPDATE otps
		SET status = $2
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.db.Exec(query, id, status)
	if err != nil {
		return fmt.Errorf("failed to mark OTP as %s: %w", status, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotPending
	}

	return nil
}

// CountIssuedSince counts every OTP issued for the identity and purpose
// since the given instant, regardless of status, and returns the oldest
// in-window creation time. Issuances count toward the rate-limit quota
// even after they are verified or expired.
func (r *otpRepository) CountIssuedSince(identity string, purpose entity.OTPPurpose, since time.Time) (int, *time.Time, error) {
	query := `
		SELECT COUNT(*) AS total, MIN(created_at) AS oldest
		FROM otps
		WHERE identity = $1 AND purpose = $2 AND created_at >= $3
	`

	var row struct {
		Total  int          `db:"total"`
		Oldest sql.NullTime `db:"oldest"`
	}
	if err := r.db.Get(&row, query, identity, purpose, since); err != nil {
		return 0, nil, fmt.Errorf("failed to count issued OTPs: %w", err)
	}

	if !row.Oldest.Valid {
		return row.Total, nil, nil
	}
	oldest := row.Oldest.Time
	return row.Total, &oldest, nil
}

// DeleteFinishedBefore removes rows that are terminal and created
// before the cutoff, or whose expiry passed before the cutoff. Pending
// rows inside the retention window are never touched.
func (r *otpRepository) DeleteFinishedBefore(cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM otps
		WHERE (status <> 'pending' AND created_at < $1) OR expires_at < $1
	`

	result, err := r.db.Exec(query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete finished OTPs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
