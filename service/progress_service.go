package service

import (
	"fmt"
	"math"

	"mentorhub/entity"
	"mentorhub/pkg/logger"
	"mentorhub/repository"
)

// ProgressService manages study progress entries. Students own their
// entries; mentors see the entries linked to them.
type ProgressService interface {
	Create(studentID int, req *entity.CreateProgressRequest) (*entity.ProgressEntry, error)
	List(userID int, role entity.UserRole, page, pageSize int) (*entity.ProgressListResponse, error)
	Update(entryID, userID int, req *entity.UpdateProgressRequest) (*entity.ProgressEntry, error)
}

type progressService struct {
	progressRepo repository.ProgressRepository
	userRepo     repository.UserRepository
	logger       *logger.Logger
}

// NewProgressService creates a new progress service instance
func NewProgressService(progressRepo repository.ProgressRepository, userRepo repository.UserRepository, log *logger.Logger) ProgressService {
	return &progressService{
		progressRepo: progressRepo,
		userRepo:     userRepo,
		logger:       log,
	}
}

// Create records a new progress entry for the student. An optional
// mentor link makes the entry visible to that mentor.
func (s *progressService) Create(studentID int, req *entity.CreateProgressRequest) (*entity.ProgressEntry, error) {
	if req.MentorID != nil {
		mentor, err := s.userRepo.GetByID(*req.MentorID)
		if err != nil {
			return nil, fmt.Errorf("failed to check mentor: %w", err)
		}
		if mentor == nil || mentor.Role != entity.UserRoleMentor {
			return nil, fmt.Errorf("linked user %d is not a mentor", *req.MentorID)
		}
	}

	status := entity.ProgressStatus(req.Status)
	if req.Status == "" {
		status = entity.ProgressStatusPlanned
	}
	if !status.Valid() {
		return nil, fmt.Errorf("invalid status: %s", req.Status)
	}

	entry, err := s.progressRepo.Create(&entity.ProgressEntry{
		StudentID: studentID,
		MentorID:  req.MentorID,
		Subject:   req.Subject,
		Title:     req.Title,
		Note:      req.Note,
		Status:    status,
	})
	if err != nil {
		s.logger.Errorw("Failed to create progress entry", "student_id", studentID, "error", err)
		return nil, fmt.Errorf("failed to create progress entry: %w", err)
	}

	s.logger.Infow("Progress entry created", "entry_id", entry.ID, "student_id", studentID)
	return entry, nil
}

// List retrieves progress entries visible to the caller. Students see
// their own entries, mentors the ones linked to them.
func (s *progressService) List(userID int, role entity.UserRole, page, pageSize int) (*entity.ProgressListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var (
		entries []entity.ProgressEntry
		total   int
		err     error
	)
	if role == entity.UserRoleMentor {
		entries, total, err = s.progressRepo.ListByMentor(userID, page, pageSize)
	} else {
		entries, total, err = s.progressRepo.ListByStudent(userID, page, pageSize)
	}
	if err != nil {
		s.logger.Errorw("Failed to list progress entries", "user_id", userID, "role", role, "error", err)
		return nil, fmt.Errorf("failed to list progress entries: %w", err)
	}

	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))

	return &entity.ProgressListResponse{
		Entries:    entries,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Update modifies an entry. Only the owning student may update it.
func (s *progressService) Update(entryID, userID int, req *entity.UpdateProgressRequest) (*entity.ProgressEntry, error) {
	entry, err := s.progressRepo.GetByID(entryID)
	if err != nil {
		s.logger.Errorw("Failed to get progress entry", "entry_id", entryID, "error", err)
		return nil, fmt.Errorf("failed to get progress entry: %w", err)
	}
	if entry == nil {
		return nil, ErrProgressNotFound
	}
	if entry.StudentID != userID {
		return nil, ErrNotEntryOwner
	}

	if req.Title != "" {
		entry.Title = req.Title
	}
	if req.Note != "" {
		entry.Note = req.Note
	}
	if req.Status != "" {
		status := entity.ProgressStatus(req.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("invalid status: %s", req.Status)
		}
		entry.Status = status
	}

	updated, err := s.progressRepo.Update(entry)
	if err != nil {
		s.logger.Errorw("Failed to update progress entry", "entry_id", entryID, "error", err)
		return nil, fmt.Errorf("failed to update progress entry: %w", err)
	}

	return updated, nil
}
