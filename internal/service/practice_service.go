package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/codacad/debug-coach-api/internal/dto"
	"github.com/codacad/debug-coach-api/internal/models"
	"github.com/codacad/debug-coach-api/internal/observability"
	"github.com/codacad/debug-coach-api/internal/repository"
	"github.com/codacad/debug-coach-api/pkg/ai"
)

// ErrPracticeLocked indicates the student has no accepted submission yet.
var ErrPracticeLocked = errors.New("practice locked until accepted")

// ErrPracticeQuestionNotFound indicates the question does not exist or
// belongs to another student.
var ErrPracticeQuestionNotFound = errors.New("practice question not found")

// ErrInvalidChoice indicates the choice index is outside the option range.
var ErrInvalidChoice = errors.New("invalid choice index")

// PracticeService generates and grades follow-up practice questions.
type PracticeService interface {
	PracticeGenerator
	Block(ctx context.Context, studentID, problemID uint) (dto.PracticeBlockResponse, error)
	Answer(ctx context.Context, payload dto.PracticeAnswerRequest) (dto.PracticeAnswerResponse, error)
}

// PracticeConfig tunes question generation.
type PracticeConfig struct {
	QuestionCount     int
	GenerationTimeout time.Duration
	GeneratingTTL     time.Duration
}

type practiceService struct {
	practices   repository.PracticeRepository
	submissions repository.SubmissionRepository
	problems    repository.ProblemRepository
	coach       ai.Coach
	cache       *redis.Client
	validator   *validator.Validate
	logger      zerolog.Logger
	config      PracticeConfig
}

// NewPracticeService constructs the practice service.
func NewPracticeService(practiceRepo repository.PracticeRepository, submissionRepo repository.SubmissionRepository, problemRepo repository.ProblemRepository, coach ai.Coach, cache *redis.Client, validate *validator.Validate, logger zerolog.Logger, cfg PracticeConfig) PracticeService {
	if cfg.QuestionCount == 0 {
		cfg.QuestionCount = 3
	}
	if cfg.GenerationTimeout == 0 {
		cfg.GenerationTimeout = 90 * time.Second
	}
	if cfg.GeneratingTTL == 0 {
		cfg.GeneratingTTL = 3 * time.Minute
	}

	return &practiceService{
		practices:   practiceRepo,
		submissions: submissionRepo,
		problems:    problemRepo,
		coach:       coach,
		cache:       cache,
		validator:   validate,
		logger:      logger.With().Str("component", "practice_service").Logger(),
		config:      cfg,
	}
}

// StartGeneration kicks off background question generation for an accepted
// solution. A redis marker prevents duplicate generation across requests.
func (s *practiceService) StartGeneration(studentID, problemID uint, acceptedCode string) {
	if s.coach == nil {
		return
	}

	if s.cache != nil {
		key := practiceGeneratingKey(studentID, problemID)
		acquired, err := s.cache.SetNX(context.Background(), key, "1", s.config.GeneratingTTL).Result()
		if err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to acquire generation marker")
		} else if !acquired {
			return
		}
	}

	go s.generate(studentID, problemID, acceptedCode)
}

func (s *practiceService) generate(studentID, problemID uint, acceptedCode string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.GenerationTimeout)
	defer cancel()
	defer s.clearGeneratingMarker(studentID, problemID)

	problem, err := s.problems.GetByID(ctx, problemID)
	if err != nil {
		s.logger.Error().Err(err).Uint("problem_id", problemID).Msg("failed to load problem for generation")
		return
	}

	items, err := s.coach.GeneratePractice(ctx, ai.PracticeInput{
		ProblemTitle: problem.Title,
		Prompt:       problem.Prompt,
		Language:     problem.Language,
		AcceptedCode: acceptedCode,
		Count:        s.config.QuestionCount,
	})
	if err != nil {
		s.logger.Error().Err(err).Uint("problem_id", problemID).Msg("practice generation failed")
		return
	}

	questions := make([]models.PracticeQuestion, 0, len(items))
	for _, item := range items {
		options, err := json.Marshal(item.Options)
		if err != nil {
			continue
		}
		questions = append(questions, models.PracticeQuestion{
			StudentID:    studentID,
			ProblemID:    problemID,
			Prompt:       item.Prompt,
			Options:      datatypes.JSON(options),
			CorrectIndex: item.CorrectIndex,
			Explanation:  item.Explanation,
		})
	}

	if err := s.practices.CreateQuestions(ctx, questions); err != nil {
		s.logger.Error().Err(err).Uint("problem_id", problemID).Msg("failed to store practice questions")
		return
	}

	observability.PracticeGenerated().Inc()
	invalidateSnapshot(ctx, s.cache, studentID, problemID)
	s.logger.Info().
		Uint("student_id", studentID).
		Uint("problem_id", problemID).
		Int("count", len(questions)).
		Msg("practice set generated")
}

func (s *practiceService) clearGeneratingMarker(studentID, problemID uint) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(context.Background(), practiceGeneratingKey(studentID, problemID)).Err()
}

// Block returns the practice set for a problem. The block is only available
// once the student has an accepted submission.
func (s *practiceService) Block(ctx context.Context, studentID, problemID uint) (dto.PracticeBlockResponse, error) {
	latest, err := s.submissions.Latest(ctx, studentID, problemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PracticeBlockResponse{}, ErrPracticeLocked
		}
		return dto.PracticeBlockResponse{}, err
	}
	if !latest.IsAccepted() {
		return dto.PracticeBlockResponse{}, ErrPracticeLocked
	}

	questions, err := s.practices.ListForProblem(ctx, studentID, problemID)
	if err != nil {
		return dto.PracticeBlockResponse{}, err
	}

	return dto.NewPracticeBlockResponse(questions, s.isGenerating(ctx, studentID, problemID)), nil
}

func (s *practiceService) isGenerating(ctx context.Context, studentID, problemID uint) bool {
	if s.cache == nil {
		return false
	}
	count, err := s.cache.Exists(ctx, practiceGeneratingKey(studentID, problemID)).Result()
	if err != nil {
		return false
	}
	return count > 0
}

// Answer grades one choice and records the attempt.
func (s *practiceService) Answer(ctx context.Context, payload dto.PracticeAnswerRequest) (dto.PracticeAnswerResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PracticeAnswerResponse{}, err
	}

	question, err := s.practices.GetQuestion(ctx, payload.QuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PracticeAnswerResponse{}, ErrPracticeQuestionNotFound
		}
		return dto.PracticeAnswerResponse{}, err
	}
	if question.StudentID != payload.StudentID {
		return dto.PracticeAnswerResponse{}, ErrPracticeQuestionNotFound
	}

	var options []string
	if err := json.Unmarshal(question.Options, &options); err != nil {
		return dto.PracticeAnswerResponse{}, err
	}

	choice := *payload.ChoiceIndex
	if choice < 0 || choice >= len(options) {
		return dto.PracticeAnswerResponse{}, ErrInvalidChoice
	}

	correct := choice == question.CorrectIndex
	answer := models.PracticeAnswer{
		QuestionID:  question.ID,
		StudentID:   payload.StudentID,
		ChoiceIndex: choice,
		Correct:     correct,
	}
	if err := s.practices.SaveAnswer(ctx, &answer); err != nil {
		return dto.PracticeAnswerResponse{}, err
	}

	invalidateSnapshot(ctx, s.cache, payload.StudentID, question.ProblemID)

	allCorrect, err := s.allAnsweredCorrect(ctx, payload.StudentID, question.ProblemID)
	if err != nil {
		return dto.PracticeAnswerResponse{}, err
	}

	response := dto.PracticeAnswerResponse{
		Correct:    correct,
		AllCorrect: allCorrect,
	}
	if correct {
		response.Explanation = question.Explanation
	}
	return response, nil
}

func (s *practiceService) allAnsweredCorrect(ctx context.Context, studentID, problemID uint) (bool, error) {
	questions, err := s.practices.ListForProblem(ctx, studentID, problemID)
	if err != nil {
		return false, err
	}
	if len(questions) == 0 {
		return false, nil
	}

	for _, question := range questions {
		solved := false
		for _, attempt := range question.Answers {
			if attempt.Correct {
				solved = true
				break
			}
		}
		if !solved {
			return false, nil
		}
	}
	return true, nil
}
