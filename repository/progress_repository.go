package repository

import (
	"database/sql"
	"fmt"

	"mentorhub/entity"

	"github.com/jmoiron/sqlx"
)

// ProgressRepository interface defines progress tracking data operations
type ProgressRepository interface {
	Create(entry *entity.ProgressEntry) (*entity.ProgressEntry, error)
	GetByID(id int) (*entity.ProgressEntry, error)
	Update(entry *entity.ProgressEntry) (*entity.ProgressEntry, error)
	ListByStudent(studentID, page, pageSize int) ([]entity.ProgressEntry, int, error)
	ListByMentor(mentorID, page, pageSize int) ([]entity.ProgressEntry, int, error)
}

// progressRepository implements ProgressRepository interface
type progressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository creates a new progress repository instance
func NewProgressRepository(db *sqlx.DB) ProgressRepository {
	return &progressRepository{
		db: db,
	}
}

// Create records a new progress entry
func (r *progressRepository) Create(entry *entity.ProgressEntry) (*entity.ProgressEntry, error) {
	query := `
		INSERT INTO progress_entries (student_id, mentor_id, subject, title, note, status, created_at, updated_at)
		VALUES (:student_id, :mentor_id, :subject, :title, :note, :status, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, student_id, mentor_id, subject, title, note, status, created_at, updated_at
	`

	rows, err := r.db.NamedQuery(query, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to create progress entry: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("failed to get created progress entry")
	}

	var created entity.ProgressEntry
	if err := rows.StructScan(&created); err != nil {
		return nil, fmt.Errorf("failed to scan created progress entry: %w", err)
	}

	return &created, nil
}

// GetByID retrieves a progress entry by ID
func (r *progressRepository) GetByID(id int) (*entity.ProgressEntry, error) {
	query := `
		SELECT id, student_id, mentor_id, subject, title, note, status, created_at, updated_at
		FROM progress_entries
		WHERE id = $1
	`

	var entry entity.ProgressEntry
	err := r.db.Get(&entry, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get progress entry: %w", err)
	}

	return &entry, nil
}

// Update rewrites the mutable fields of a progress entry
func (r *progressRepository) Update(entry *entity.ProgressEntry) (*entity.ProgressEntry, error) {
	query := `
		UPDATE progress_entries
		SET title = :title, note = :note, status = :status, updated_at = CURRENT_TIMESTAMP
		WHERE id = :id
		RETURNING id, student_id, mentor_id, subject, title, note, status, created_at, updated_at
	`

	rows, err := r.db.NamedQuery(query, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to update progress entry: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("progress entry not found")
	}

	var updated entity.ProgressEntry
	if err := rows.StructScan(&updated); err != nil {
		return nil, fmt.Errorf("failed to scan updated progress entry: %w", err)
	}

	return &updated, nil
}

// ListByStudent retrieves the paginated entries created by a student
func (r *progressRepository) ListByStudent(studentID, page, pageSize int) ([]entity.ProgressEntry, int, error) {
	return r.list("student_id", studentID, page, pageSize)
}

// ListByMentor retrieves the paginated entries linked to a mentor
func (r *progressRepository) ListByMentor(mentorID, page, pageSize int) ([]entity.ProgressEntry, int, error) {
	return r.list("mentor_id", mentorID, page, pageSize)
}

func (r *progressRepository) list(column string, id, page, pageSize int) ([]entity.ProgressEntry, int, error) {
	offset := (page - 1) * pageSize

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM progress_entries WHERE %s = $1", column)
	var total int
	if err := r.db.Get(&total, countQuery, id); err != nil {
		return nil, 0, fmt.Errorf("failed to count progress entries: %w", err)
	}

	listQuery := fmt.Sprintf(`
		SELECT id, student_id, mentor_id, subject, title, note, status, created_at, updated_at
		FROM progress_entries
		WHERE %s = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, column)

	var entries []entity.ProgressEntry
	if err := r.db.Select(&entries, listQuery, id, pageSize, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list progress entries: %w", err)
	}

	return entries, total, nil
}
