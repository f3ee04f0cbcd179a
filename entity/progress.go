package entity

import (
	"time"
)

// ProgressStatus is the state of a tracked learning goal.
type ProgressStatus string

const (
	ProgressStatusPlanned    ProgressStatus = "planned"
	ProgressStatusInProgress ProgressStatus = "in_progress"
	ProgressStatusCompleted  ProgressStatus = "completed"
)

// Valid reports whether the status is one of the defined values.
func (s ProgressStatus) Valid() bool {
	switch s {
	case ProgressStatusPlanned, ProgressStatusInProgress, ProgressStatusCompleted:
		return true
	}
	return false
}

// ProgressEntry is one tracked goal or milestone of a student,
// optionally linked to the mentor guiding it.
type ProgressEntry struct {
	ID        int            `db:"id" json:"id"`
	StudentID int            `db:"student_id" json:"student_id"`
	MentorID  *int           `db:"mentor_id" json:"mentor_id"`
	Subject   string         `db:"subject" json:"subject"`
	Title     string         `db:"title" json:"title"`
	Note      string         `db:"note" json:"note"`
	Status    ProgressStatus `db:"status" json:"status"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// TableName returns the table name for the ProgressEntry entity
func (ProgressEntry) TableName() string {
	return "progress_entries"
}

// CreateProgressRequest represents the request to record a new goal
type CreateProgressRequest struct {
	MentorID *int   `json:"mentor_id" validate:"omitempty,min=1"`
	Subject  string `json:"subject" validate:"required,min=2,max=60"`
	Title    string `json:"title" validate:"required,min=2,max=160"`
	Note     string `json:"note" validate:"max=2000"`
	Status   string `json:"status" validate:"omitempty,oneof=planned in_progress completed"`
}

// UpdateProgressRequest represents the request to update a goal
type UpdateProgressRequest struct {
	Title  string `json:"title" validate:"omitempty,min=2,max=160"`
	Note   string `json:"note" validate:"max=2000"`
	Status string `json:"status" validate:"omitempty,oneof=planned in_progress completed"`
}

// ProgressListResponse represents the paginated progress entries
type ProgressListResponse struct {
	Entries    []ProgressEntry `json:"entries"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}
