package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/codacad/debug-coach-api/internal/dto"
	"github.com/codacad/debug-coach-api/internal/repository"
)

// ProblemService lists debugging problems for the sidebar.
type ProblemService interface {
	List(ctx context.Context) ([]dto.ProblemResponse, error)
	Get(ctx context.Context, id uint) (dto.ProblemResponse, error)
}

type problemService struct {
	problems repository.ProblemRepository
	logger   zerolog.Logger
	now      func() time.Time
}

// NewProblemService constructs the problem service.
func NewProblemService(problemRepo repository.ProblemRepository, logger zerolog.Logger) ProblemService {
	return &problemService{
		problems: problemRepo,
		logger:   logger.With().Str("component", "problem_service").Logger(),
		now:      time.Now,
	}
}

func (s *problemService) List(ctx context.Context) ([]dto.ProblemResponse, error) {
	problems, err := s.problems.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewProblemResponseSlice(problems, s.now()), nil
}

func (s *problemService) Get(ctx context.Context, id uint) (dto.ProblemResponse, error) {
	problem, err := s.problems.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProblemResponse{}, ErrProblemNotFound
		}
		return dto.ProblemResponse{}, err
	}
	return dto.NewProblemResponse(problem, s.now()), nil
}
