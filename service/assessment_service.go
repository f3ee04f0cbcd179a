package service

import (
	"fmt"
	"math"

	"github.com/lib/pq"

	"mentorhub/entity"
	"mentorhub/pkg/logger"
	"mentorhub/repository"
)

// reverseScoredItems are the questionnaire positions keyed negatively,
// two per trait dimension. A response v on these items counts as 6 - v.
var reverseScoredItems = map[int]bool{
	5: true, 6: true, 7: true, 8: true, 9: true,
	15: true, 16: true, 17: true, 18: true, 19: true,
}

// AssessmentService scores and stores trait questionnaires.
type AssessmentService interface {
	Submit(userID int, req *entity.SubmitAssessmentRequest) (*entity.AssessmentResult, error)
	GetLatest(userID int) (*entity.AssessmentResult, error)
}

type assessmentService struct {
	assessmentRepo repository.AssessmentRepository
	logger         *logger.Logger
}

// NewAssessmentService creates a new assessment service instance
func NewAssessmentService(assessmentRepo repository.AssessmentRepository, log *logger.Logger) AssessmentService {
	return &assessmentService{
		assessmentRepo: assessmentRepo,
		logger:         log,
	}
}

// Submit scores the raw responses and stores the result. Every
// submission is kept; matching always reads the latest one.
func (s *assessmentService) Submit(userID int, req *entity.SubmitAssessmentRequest) (*entity.AssessmentResult, error) {
	if len(req.Responses) != entity.AssessmentItemCount {
		return nil, fmt.Errorf("expected %d responses, got %d", entity.AssessmentItemCount, len(req.Responses))
	}
	responses := make(pq.Int64Array, entity.AssessmentItemCount)
	for i, v := range req.Responses {
		if v < 1 || v > 5 {
			return nil, fmt.Errorf("response %d out of range: %d", i, v)
		}
		responses[i] = int64(v)
	}

	result, err := s.assessmentRepo.Create(&entity.AssessmentResult{
		UserID:      userID,
		Responses:   responses,
		TraitScores: scoreResponses(req.Responses),
	})
	if err != nil {
		s.logger.Errorw("Failed to store assessment", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to store assessment: %w", err)
	}

	s.logger.Infow("Assessment submitted", "user_id", userID, "assessment_id", result.ID)
	return result, nil
}

// GetLatest retrieves the caller's most recent assessment.
func (s *assessmentService) GetLatest(userID int) (*entity.AssessmentResult, error) {
	result, err := s.assessmentRepo.GetLatestByUserID(userID)
	if err != nil {
		s.logger.Errorw("Failed to get latest assessment", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get latest assessment: %w", err)
	}
	if result == nil {
		return nil, ErrAssessmentNotFound
	}
	return result, nil
}

// scoreResponses folds the 25 responses into the five dimension scores.
// Item i belongs to dimension i mod 5; each dimension sums five items
// (after reverse keying) and maps the 5..25 sum onto 0..100.
func scoreResponses(responses []int) entity.TraitScores {
	var sums [5]int
	for i, v := range responses {
		if reverseScoredItems[i] {
			v = 6 - v
		}
		sums[i%5] += v
	}

	scale := func(sum int) int {
		return int(math.Round(float64(sum-5) / 20.0 * 100.0))
	}

	return entity.TraitScores{
		Openness:          scale(sums[0]),
		Conscientiousness: scale(sums[1]),
		Extraversion:      scale(sums[2]),
		Agreeableness:     scale(sums[3]),
		Stability:         scale(sums[4]),
	}
}
