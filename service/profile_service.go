package service

import (
	"fmt"
	"math"

	"github.com/lib/pq"

	"mentorhub/entity"
	"mentorhub/pkg/logger"
	"mentorhub/repository"
)

// ProfileService handles onboarding profiles and the public mentor
// directory.
type ProfileService interface {
	GetOwn(userID int) (*entity.Profile, error)
	Upsert(userID int, role entity.UserRole, req *entity.UpdateProfileRequest) (*entity.Profile, error)
	ListMentors(subject string, page, pageSize int) (*entity.MentorsListResponse, error)
}

type profileService struct {
	profileRepo repository.ProfileRepository
	logger      *logger.Logger
}

// NewProfileService creates a new profile service instance
func NewProfileService(profileRepo repository.ProfileRepository, log *logger.Logger) ProfileService {
	return &profileService{
		profileRepo: profileRepo,
		logger:      log,
	}
}

// GetOwn retrieves the caller's profile
func (s *profileService) GetOwn(userID int) (*entity.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(userID)
	if err != nil {
		s.logger.Errorw("Failed to get profile", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

// Upsert creates or replaces the caller's profile. Saving a profile
// completes onboarding.
func (s *profileService) Upsert(userID int, role entity.UserRole, req *entity.UpdateProfileRequest) (*entity.Profile, error) {
	profile := &entity.Profile{
		UserID:              userID,
		Headline:            req.Headline,
		Bio:                 req.Bio,
		Subjects:            pq.StringArray(req.Subjects),
		Availability:        req.Availability,
		OnboardingCompleted: true,
	}

	// Grade level is a student field, years of experience a mentor one.
	// The other is dropped rather than rejected.
	switch role {
	case entity.UserRoleMentor:
		profile.YearsExperience = req.YearsExperience
	default:
		profile.GradeLevel = req.GradeLevel
	}

	saved, err := s.profileRepo.Upsert(profile)
	if err != nil {
		s.logger.Errorw("Failed to save profile", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	s.logger.Infow("Profile saved", "user_id", userID, "subjects", len(saved.Subjects))
	return saved, nil
}

// ListMentors retrieves the mentor directory, optionally filtered by a
// taught subject. Only verified, active mentors are listed.
func (s *profileService) ListMentors(subject string, page, pageSize int) (*entity.MentorsListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	mentors, total, err := s.profileRepo.ListMentors(subject, page, pageSize)
	if err != nil {
		s.logger.Errorw("Failed to list mentors", "subject", subject, "error", err)
		return nil, fmt.Errorf("failed to list mentors: %w", err)
	}

	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))

	return &entity.MentorsListResponse{
		Mentors:    mentors,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}
