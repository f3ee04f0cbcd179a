package entity

import (
	"time"

	"github.com/lib/pq"
)

// AssessmentItemCount is the fixed questionnaire length. Item i belongs
// to trait dimension i mod 5.
const AssessmentItemCount = 25

// TraitScores are the five dimension scores derived from a submitted
// questionnaire, each scaled to 0..100.
type TraitScores struct {
	Openness          int `db:"openness" json:"openness"`
	Conscientiousness int `db:"conscientiousness" json:"conscientiousness"`
	Extraversion      int `db:"extraversion" json:"extraversion"`
	Agreeableness     int `db:"agreeableness" json:"agreeableness"`
	Stability         int `db:"stability" json:"stability"`
}

// AssessmentResult is one scored questionnaire submission.
type AssessmentResult struct {
	ID        int           `db:"id" json:"id"`
	UserID    int           `db:"user_id" json:"user_id"`
	Responses pq.Int64Array `db:"responses" json:"responses" swaggertype:"array,integer"`
	TraitScores
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TableName returns the table name for the AssessmentResult entity
func (AssessmentResult) TableName() string {
	return "assessment_results"
}

// SubmitAssessmentRequest carries the raw Likert responses (1..5 each).
type SubmitAssessmentRequest struct {
	Responses []int `json:"responses" validate:"required,len=25,dive,min=1,max=5"`
}

// MentorTraitProfile joins a mentor's directory data with the trait
// scores of their latest assessment. Input row for matching.
type MentorTraitProfile struct {
	UserID   int            `db:"user_id" json:"user_id"`
	FullName string         `db:"full_name" json:"full_name"`
	Headline string         `db:"headline" json:"headline"`
	Subjects pq.StringArray `db:"subjects" json:"subjects" swaggertype:"array,string"`
	TraitScores
}

// MentorMatch is one ranked entry of the mentor matching result.
type MentorMatch struct {
	MentorID   int            `json:"mentor_id"`
	FullName   string         `json:"full_name"`
	Headline   string         `json:"headline"`
	Subjects   pq.StringArray `json:"subjects" swaggertype:"array,string"`
	Scores     TraitScores    `json:"scores"`
	Similarity float64        `json:"similarity"`
}

// MentorMatchesResponse is the ranked matching result for a student.
type MentorMatchesResponse struct {
	Matches []MentorMatch `json:"matches"`
	Total   int           `json:"total"`
}
