package service

import (
	"sync"
	"testing"
	"time"

	"mentorhub/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryAssessmentRepo is an in-memory AssessmentRepository. The mentor
// profile list is canned; the requested subject filter is recorded.
type memoryAssessmentRepo struct {
	mu          sync.Mutex
	nextID      int
	byUser      map[int][]*entity.AssessmentResult
	profiles    []entity.MentorTraitProfile
	lastSubject string
}

func newMemoryAssessmentRepo() *memoryAssessmentRepo {
	return &memoryAssessmentRepo{byUser: map[int][]*entity.AssessmentResult{}}
}

func (r *memoryAssessmentRepo) Create(result *entity.AssessmentResult) (*entity.AssessmentResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	stored := *result
	stored.ID = r.nextID
	stored.CreatedAt = time.Now()
	r.byUser[stored.UserID] = append(r.byUser[stored.UserID], &stored)

	created := stored
	return &created, nil
}

func (r *memoryAssessmentRepo) GetLatestByUserID(userID int) (*entity.AssessmentResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	results := r.byUser[userID]
	if len(results) == 0 {
		return nil, nil
	}
	latest := *results[len(results)-1]
	return &latest, nil
}

func (r *memoryAssessmentRepo) ListMentorTraitProfiles(subject string) ([]entity.MentorTraitProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastSubject = subject
	return append([]entity.MentorTraitProfile(nil), r.profiles...), nil
}

func (r *memoryAssessmentRepo) subjectSeen() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSubject
}

// repeatResponses fills all 25 items with the same value.
func repeatResponses(v int) []int {
	responses := make([]int, entity.AssessmentItemCount)
	for i := range responses {
		responses[i] = v
	}
	return responses
}

func TestSubmit_ScoresNeutralResponsesAtMidpoint(t *testing.T) {
	repo := newMemoryAssessmentRepo()
	svc := NewAssessmentService(repo, testLogger(t))

	result, err := svc.Submit(7, &entity.SubmitAssessmentRequest{Responses: repeatResponses(3)})
	require.NoError(t, err)

	// All-neutral answers land every dimension exactly in the middle.
	want := entity.TraitScores{Openness: 50, Conscientiousness: 50, Extraversion: 50, Agreeableness: 50, Stability: 50}
	assert.Equal(t, want, result.TraitScores)
	assert.Equal(t, 7, result.UserID)
	assert.Len(t, result.Responses, entity.AssessmentItemCount)
	assert.NotZero(t, result.ID)
}

func TestSubmit_ReverseKeyedItemsPullAgainstExtremes(t *testing.T) {
	repo := newMemoryAssessmentRepo()
	svc := NewAssessmentService(repo, testLogger(t))

	// Each dimension has three forward and two reverse-keyed items, so
	// uniform extremes never reach 0 or 100.
	high, err := svc.Submit(1, &entity.SubmitAssessmentRequest{Responses: repeatResponses(5)})
	require.NoError(t, err)
	assert.Equal(t, entity.TraitScores{Openness: 60, Conscientiousness: 60, Extraversion: 60, Agreeableness: 60, Stability: 60}, high.TraitScores)

	low, err := svc.Submit(1, &entity.SubmitAssessmentRequest{Responses: repeatResponses(1)})
	require.NoError(t, err)
	assert.Equal(t, entity.TraitScores{Openness: 40, Conscientiousness: 40, Extraversion: 40, Agreeableness: 40, Stability: 40}, low.TraitScores)
}

func TestSubmit_DimensionsInterleave(t *testing.T) {
	repo := newMemoryAssessmentRepo()
	svc := NewAssessmentService(repo, testLogger(t))

	// Item i answers (i mod 5) + 1, so each dimension gets one distinct
	// uniform answer and the five scores spread accordingly.
	responses := make([]int, entity.AssessmentItemCount)
	for i := range responses {
		responses[i] = i%5 + 1
	}

	result, err := svc.Submit(1, &entity.SubmitAssessmentRequest{Responses: responses})
	require.NoError(t, err)

	want := entity.TraitScores{
		Openness:          40,
		Conscientiousness: 45,
		Extraversion:      50,
		Agreeableness:     55,
		Stability:         60,
	}
	assert.Equal(t, want, result.TraitScores)
}

func TestSubmit_RejectsWrongLength(t *testing.T) {
	repo := newMemoryAssessmentRepo()
	svc := NewAssessmentService(repo, testLogger(t))

	_, err := svc.Submit(1, &entity.SubmitAssessmentRequest{Responses: make([]int, 24)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 25")
}

func TestSubmit_RejectsOutOfRangeResponse(t *testing.T) {
	repo := newMemoryAssessmentRepo()
	svc := NewAssessmentService(repo, testLogger(t))

	responses := repeatResponses(3)
	responses[12] = 6
	_, err := svc.Submit(1, &entity.SubmitAssessmentRequest{Responses: responses})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	responses[12] = 0
	_, err = svc.Submit(1, &entity.SubmitAssessmentRequest{Responses: responses})
	require.Error(t, err)
}

func TestGetLatest_ReturnsMostRecentSubmission(t *testing.T) {
	repo := newMemoryAssessmentRepo()
	svc := NewAssessmentService(repo, testLogger(t))

	_, err := svc.Submit(1, &entity.SubmitAssessmentRequest{Responses: repeatResponses(3)})
	require.NoError(t, err)
	second, err := svc.Submit(1, &entity.SubmitAssessmentRequest{Responses: repeatResponses(5)})
	require.NoError(t, err)

	latest, err := svc.GetLatest(1)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, second.TraitScores, latest.TraitScores)
}

func TestGetLatest_NoSubmission(t *testing.T) {
	repo := newMemoryAssessmentRepo()
	svc := NewAssessmentService(repo, testLogger(t))

	_, err := svc.GetLatest(99)
	assert.ErrorIs(t, err, ErrAssessmentNotFound)
}
