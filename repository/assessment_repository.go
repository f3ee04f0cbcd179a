package repository

import (
	"database/sql"
	"fmt"

	"mentorhub/entity"

	"github.com/jmoiron/sqlx"
)

// AssessmentRepository interface defines assessment data operations
type AssessmentRepository interface {
	Create(result *entity.AssessmentResult) (*entity.AssessmentResult, error)
	GetLatestByUserID(userID int) (*entity.AssessmentResult, error)
	ListMentorTraitProfiles(subject string) ([]entity.MentorTraitProfile, error)
}

// assessmentRepository implements AssessmentRepository interface
type assessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository creates a new assessment repository instance
func NewAssessmentRepository(db *sqlx.DB) AssessmentRepository {
	return &assessmentRepository{
		db: db,
	}
}

// Create stores a scored questionnaire submission
func (r *assessmentRepository) Create(result *entity.AssessmentResult) (*entity.AssessmentResult, error) {
	query := `
		INSERT INTO assessment_results (user_id, responses, openness, conscientiousness, extraversion, agreeableness, stability, created_at)
		VALUES (:user_id, :responses, :openness, :conscientiousness, :extraversion, :agreeableness, :stability, CURRENT_TIMESTAMP)
		RETURNING id, user_id, responses, openness, conscientiousness, extraversion, agreeableness, stability, created_at
	`

	rows, err := r.db.NamedQuery(query, result)
	if err != nil {
		return nil, fmt.Errorf("failed to create assessment result: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("failed to get created assessment result")
	}

	var created entity.AssessmentResult
	if err := rows.StructScan(&created); err != nil {
		return nil, fmt.Errorf("failed to scan created assessment result: %w", err)
	}

	return &created, nil
}

// GetLatestByUserID retrieves the most recent submission of a user.
// Returns nil when the user has not taken the assessment.
func (r *assessmentRepository) GetLatestByUserID(userID int) (*entity.AssessmentResult, error) {
	query := `
		SELECT id, user_id, responses, openness, conscientiousness, extraversion, agreeableness, stability, created_at
		FROM assessment_results
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var result entity.AssessmentResult
	err := r.db.Get(&result, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get assessment result: %w", err)
	}

	return &result, nil
}

// ListMentorTraitProfiles joins each assessed mentor's latest trait
// scores with their directory profile, optionally filtered by subject.
func (r *assessmentRepository) ListMentorTraitProfiles(subject string) ([]entity.MentorTraitProfile, error) {
	query := `
		SELECT DISTINCT ON (ar.user_id)
			ar.user_id, u.full_name, p.headline, p.subjects,
			ar.openness, ar.conscientiousness, ar.extraversion, ar.agreeableness, ar.stability
		FROM assessment_results ar
		JOIN users u ON u.id = ar.user_id
		JOIN profiles p ON p.user_id = ar.user_id
		WHERE u.role = 'mentor' AND u.is_active = TRUE AND u.email_verified = TRUE
	`
	args := []interface{}{}

	if subject != "" {
		query += " AND $1 = ANY(p.subjects)"
		args = append(args, subject)
	}

	query += " ORDER BY ar.user_id, ar.created_at DESC"

	var profiles []entity.MentorTraitProfile
	if err := r.db.Select(&profiles, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list mentor trait profiles: %w", err)
	}

	return profiles, nil
}
