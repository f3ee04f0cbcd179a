package entity

import (
	"time"

	"github.com/lib/pq"
)

// Profile holds the onboarding data collected after registration. One
// row per user; students fill grade level, mentors fill experience.
type Profile struct {
	ID                  int            `db:"id" json:"id"`
	UserID              int            `db:"user_id" json:"user_id"`
	Headline            string         `db:"headline" json:"headline"`
	Bio                 string         `db:"bio" json:"bio"`
	Subjects            pq.StringArray `db:"subjects" json:"subjects" swaggertype:"array,string"`
	GradeLevel          *string        `db:"grade_level" json:"grade_level"`
	YearsExperience     *int           `db:"years_experience" json:"years_experience"`
	Availability        string         `db:"availability" json:"availability"`
	OnboardingCompleted bool           `db:"onboarding_completed" json:"onboarding_completed"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`
}

// TableName returns the table name for the Profile entity
func (Profile) TableName() string {
	return "profiles"
}

// UpdateProfileRequest represents the onboarding upsert request
type UpdateProfileRequest struct {
	Headline        string   `json:"headline" validate:"max=160"`
	Bio             string   `json:"bio" validate:"max=2000"`
	Subjects        []string `json:"subjects" validate:"required,min=1,max=10,dive,min=2,max=60"`
	GradeLevel      *string  `json:"grade_level" validate:"omitempty,max=40"`
	YearsExperience *int     `json:"years_experience" validate:"omitempty,min=0,max=80"`
	Availability    string   `json:"availability" validate:"max=200"`
}

// MentorSummary is the directory representation of a mentor.
type MentorSummary struct {
	UserID          int            `db:"user_id" json:"user_id"`
	FullName        string         `db:"full_name" json:"full_name"`
	Headline        string         `db:"headline" json:"headline"`
	Subjects        pq.StringArray `db:"subjects" json:"subjects" swaggertype:"array,string"`
	YearsExperience *int           `db:"years_experience" json:"years_experience"`
	Availability    string         `db:"availability" json:"availability"`
}

// MentorsListResponse represents the paginated mentor directory
type MentorsListResponse struct {
	Mentors    []MentorSummary `json:"mentors"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}
