package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/codacad/debug-coach-api/internal/dto"
	"github.com/codacad/debug-coach-api/internal/models"
	"github.com/codacad/debug-coach-api/internal/repository"
)

// StudentCodeService assembles the per-problem snapshot the client reloads
// when a problem is selected.
type StudentCodeService interface {
	Snapshot(ctx context.Context, studentID, problemID uint) (dto.StudentCodeResponse, error)
}

// StudentCodeConfig tunes snapshot caching.
type StudentCodeConfig struct {
	CacheTTL time.Duration
}

type studentCodeService struct {
	problems    repository.ProblemRepository
	submissions repository.SubmissionRepository
	practices   repository.PracticeRepository
	cache       *redis.Client
	logger      zerolog.Logger
	config      StudentCodeConfig
	now         func() time.Time
}

// NewStudentCodeService constructs the snapshot service.
func NewStudentCodeService(problemRepo repository.ProblemRepository, submissionRepo repository.SubmissionRepository, practiceRepo repository.PracticeRepository, cache *redis.Client, logger zerolog.Logger, cfg StudentCodeConfig) StudentCodeService {
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 30 * time.Second
	}

	return &studentCodeService{
		problems:    problemRepo,
		submissions: submissionRepo,
		practices:   practiceRepo,
		cache:       cache,
		logger:      logger.With().Str("component", "student_code_service").Logger(),
		config:      cfg,
		now:         time.Now,
	}
}

func (s *studentCodeService) Snapshot(ctx context.Context, studentID, problemID uint) (dto.StudentCodeResponse, error) {
	if cached, ok := s.fromCache(ctx, studentID, problemID); ok {
		return cached, nil
	}

	problem, err := s.problems.GetByID(ctx, problemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentCodeResponse{}, ErrProblemNotFound
		}
		return dto.StudentCodeResponse{}, err
	}

	var latest *models.Submission
	submission, err := s.submissions.Latest(ctx, studentID, problemID)
	switch {
	case err == nil:
		latest = &submission
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return dto.StudentCodeResponse{}, err
	}

	practice := dto.PracticeBlockResponse{}
	if latest != nil && latest.IsAccepted() {
		questions, err := s.practices.ListForProblem(ctx, studentID, problemID)
		if err != nil {
			return dto.StudentCodeResponse{}, err
		}
		practice = dto.NewPracticeBlockResponse(questions, s.isGenerating(ctx, studentID, problemID))
	}

	response := dto.NewStudentCodeResponse(problem, latest, practice, s.now())
	s.store(ctx, studentID, problemID, response)
	return response, nil
}

func (s *studentCodeService) fromCache(ctx context.Context, studentID, problemID uint) (dto.StudentCodeResponse, bool) {
	if s.cache == nil {
		return dto.StudentCodeResponse{}, false
	}

	raw, err := s.cache.Get(ctx, snapshotCacheKey(studentID, problemID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("snapshot cache read failed")
		}
		return dto.StudentCodeResponse{}, false
	}

	var response dto.StudentCodeResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return dto.StudentCodeResponse{}, false
	}
	return response, true
}

func (s *studentCodeService) store(ctx context.Context, studentID, problemID uint, response dto.StudentCodeResponse) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, snapshotCacheKey(studentID, problemID), raw, s.config.CacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("snapshot cache write failed")
	}
}

func (s *studentCodeService) isGenerating(ctx context.Context, studentID, problemID uint) bool {
	if s.cache == nil {
		return false
	}
	count, err := s.cache.Exists(ctx, practiceGeneratingKey(studentID, problemID)).Result()
	if err != nil {
		return false
	}
	return count > 0
}
