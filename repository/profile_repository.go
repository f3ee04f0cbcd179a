package repository

import (
	"database/sql"
	"fmt"

	"mentorhub/entity"

	"github.com/jmoiron/sqlx"
)

// ProfileRepository interface defines onboarding profile data operations
type ProfileRepository interface {
	Upsert(profile *entity.Profile) (*entity.Profile, error)
	GetByUserID(userID int) (*entity.Profile, error)
	ListMentors(subject string, page, pageSize int) ([]entity.MentorSummary, int, error)
}

// profileRepository implements ProfileRepository interface
type profileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new profile repository instance
func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{
		db: db,
	}
}

// Upsert inserts the profile or rewrites the existing row of the user
func (r *profileRepository) Upsert(profile *entity.Profile) (*entity.Profile, error) {
	query := `
		INSERT INTO profiles (user_id, headline, bio, subjects, grade_level, years_experience, availability, onboarding_completed, updated_at)
		VALUES (:user_id, :headline, :bio, :subjects, :grade_level, :years_experience, :availability, :onboarding_completed, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id)
		DO UPDATE SET
			headline = EXCLUDED.headline,
			bio = EXCLUDED.bio,
			subjects = EXCLUDED.subjects,
			grade_level = EXCLUDED.grade_level,
			years_experience = EXCLUDED.years_experience,
			availability = EXCLUDED.availability,
			onboarding_completed = EXCLUDED.onboarding_completed,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, user_id, headline, bio, subjects, grade_level, years_experience, availability, onboarding_completed, updated_at
	`

	rows, err := r.db.NamedQuery(query, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("failed to get upserted profile")
	}

	var saved entity.Profile
	if err := rows.StructScan(&saved); err != nil {
		return nil, fmt.Errorf("failed to scan upserted profile: %w", err)
	}

	return &saved, nil
}

// GetByUserID retrieves the profile of a user. Returns nil when the
// user has not completed onboarding yet.
func (r *profileRepository) GetByUserID(userID int) (*entity.Profile, error) {
	query := `
		SELECT id, user_id, headline, bio, subjects, grade_level, years_experience, availability, onboarding_completed, updated_at
		FROM profiles
		WHERE user_id = $1
	`

	var profile entity.Profile
	err := r.db.Get(&profile, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &profile, nil
}

// ListMentors retrieves the paginated mentor directory, optionally
// filtered to mentors teaching the given subject.
func (r *profileRepository) ListMentors(subject string, page, pageSize int) ([]entity.MentorSummary, int, error) {
	offset := (page - 1) * pageSize

	whereClause := `
		WHERE u.role = 'mentor' AND u.is_active = TRUE AND u.email_verified = TRUE
	`
	args := []interface{}{}
	argIndex := 1

	if subject != "" {
		whereClause += fmt.Sprintf(" AND $%d = ANY(p.subjects)", argIndex)
		args = append(args, subject)
		argIndex++
	}

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM profiles p
		JOIN users u ON u.id = p.user_id
		%s
	`, whereClause)

	var total int
	if err := r.db.Get(&total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count mentors: %w", err)
	}

	listQuery := fmt.Sprintf(`
		SELECT p.user_id, u.full_name, p.headline, p.subjects, p.years_experience, p.availability
		FROM profiles p
		JOIN users u ON u.id = p.user_id
		%s
		ORDER BY u.full_name ASC
		LIMIT $%d OFFSET $%d
	`, whereClause, argIndex, argIndex+1)

	args = append(args, pageSize, offset)

	var mentors []entity.MentorSummary
	if err := r.db.Select(&mentors, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list mentors: %w", err)
	}

	return mentors, total, nil
}
