package service

import (
	"fmt"
	"math"
	"sort"

	"mentorhub/entity"
	"mentorhub/pkg/logger"
	"mentorhub/repository"
)

// maxTraitDistance is the largest possible Manhattan distance between
// two trait profiles: five dimensions, each 0..100 apart.
const maxTraitDistance = 500.0

// MatchService ranks mentors against a student's trait profile.
type MatchService interface {
	Matches(studentID int, subject string, limit int) (*entity.MentorMatchesResponse, error)
}

type matchService struct {
	assessmentRepo repository.AssessmentRepository
	logger         *logger.Logger
}

// NewMatchService creates a new match service instance
func NewMatchService(assessmentRepo repository.AssessmentRepository, log *logger.Logger) MatchService {
	return &matchService{
		assessmentRepo: assessmentRepo,
		logger:         log,
	}
}

// Matches returns mentors ranked by trait similarity to the caller,
// optionally restricted to those teaching a subject. Both sides need a
// stored assessment; mentors without one are simply absent from the
// candidate set.
func (s *matchService) Matches(studentID int, subject string, limit int) (*entity.MentorMatchesResponse, error) {
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	own, err := s.assessmentRepo.GetLatestByUserID(studentID)
	if err != nil {
		s.logger.Errorw("Failed to get latest assessment", "user_id", studentID, "error", err)
		return nil, fmt.Errorf("failed to get latest assessment: %w", err)
	}
	if own == nil {
		return nil, ErrAssessmentRequired
	}

	candidates, err := s.assessmentRepo.ListMentorTraitProfiles(subject)
	if err != nil {
		s.logger.Errorw("Failed to list mentor trait profiles", "subject", subject, "error", err)
		return nil, fmt.Errorf("failed to list mentor candidates: %w", err)
	}

	matches := make([]entity.MentorMatch, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.UserID == studentID {
			continue
		}
		matches = append(matches, entity.MentorMatch{
			MentorID:   candidate.UserID,
			FullName:   candidate.FullName,
			Headline:   candidate.Headline,
			Subjects:   candidate.Subjects,
			Scores:     candidate.TraitScores,
			Similarity: similarity(own.TraitScores, candidate.TraitScores),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].MentorID < matches[j].MentorID
	})

	total := len(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}

	return &entity.MentorMatchesResponse{
		Matches: matches,
		Total:   total,
	}, nil
}

// similarity maps the Manhattan distance between two trait profiles
// onto 0..1, where 1 is an identical profile. Rounded to two decimals.
func similarity(a, b entity.TraitScores) float64 {
	distance := math.Abs(float64(a.Openness-b.Openness)) +
		math.Abs(float64(a.Conscientiousness-b.Conscientiousness)) +
		math.Abs(float64(a.Extraversion-b.Extraversion)) +
		math.Abs(float64(a.Agreeableness-b.Agreeableness)) +
		math.Abs(float64(a.Stability-b.Stability))

	score := 1.0 - distance/maxTraitDistance
	return math.Round(score*100) / 100
}
