package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/codacad/debug-coach-api/internal/dto"
	"github.com/codacad/debug-coach-api/internal/helpflow"
	"github.com/codacad/debug-coach-api/internal/models"
	"github.com/codacad/debug-coach-api/internal/observability"
	"github.com/codacad/debug-coach-api/internal/repository"
	dockerexec "github.com/codacad/debug-coach-api/pkg/docker"
)

// SubmissionService judges debugging submissions.
type SubmissionService interface {
	Submit(ctx context.Context, payload dto.SubmitRequest) (dto.SubmitResponse, error)
}

// ErrProblemNotFound indicates the problem cannot be located.
var ErrProblemNotFound = errors.New("problem not found")

// ErrProblemWindowClosed indicates the problem is outside its availability window.
var ErrProblemWindowClosed = errors.New("problem window closed")

// ErrUnsupportedLanguage indicates the problem's language has no runner configured.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// SubmissionConfig describes execution configuration knobs.
type SubmissionConfig struct {
	ExecutionTimeout time.Duration
	MemoryLimitMB    int
	CPUShares        int
	WorkspaceRoot    string
}

type languageConfig struct {
	Image    string
	FileName string
	Command  []string
}

type submissionService struct {
	problems    repository.ProblemRepository
	submissions repository.SubmissionRepository
	practices   repository.PracticeRepository
	generator   PracticeGenerator
	executor    dockerexec.Executor
	cache       *redis.Client
	validator   *validator.Validate
	logger      zerolog.Logger
	config      SubmissionConfig
	languages   map[string]languageConfig
	now         func() time.Time
}

// PracticeGenerator starts background practice generation after acceptance.
type PracticeGenerator interface {
	StartGeneration(studentID, problemID uint, acceptedCode string)
}

// NewSubmissionService constructs the judge service.
func NewSubmissionService(problemRepo repository.ProblemRepository, submissionRepo repository.SubmissionRepository, practiceRepo repository.PracticeRepository, generator PracticeGenerator, executor dockerexec.Executor, cache *redis.Client, validate *validator.Validate, logger zerolog.Logger, cfg SubmissionConfig) SubmissionService {
	if cfg.WorkspaceRoot == "" {
		cfg.WorkspaceRoot = os.TempDir()
	}

	return &submissionService{
		problems:    problemRepo,
		submissions: submissionRepo,
		practices:   practiceRepo,
		generator:   generator,
		executor:    executor,
		cache:       cache,
		validator:   validate,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		config:      cfg,
		languages: map[string]languageConfig{
			"python": {
				Image:    "python:3.11-alpine",
				FileName: "main.py",
				Command:  []string{"python", "main.py"},
			},
			"javascript": {
				Image:    "node:20-alpine",
				FileName: "main.js",
				Command:  []string{"node", "main.js"},
			},
			"go": {
				Image:    "golang:1.22-alpine",
				FileName: "main.go",
				Command:  []string{"sh", "-c", "go run main.go"},
			},
		},
		now: time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, payload dto.SubmitRequest) (dto.SubmitResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmitResponse{}, err
	}

	problem, err := s.problems.GetByID(ctx, payload.ProblemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmitResponse{}, ErrProblemNotFound
		}
		return dto.SubmitResponse{}, err
	}

	if problem.Window(s.now()) != helpflow.WindowActive {
		return dto.SubmitResponse{}, ErrProblemWindowClosed
	}

	language := strings.ToLower(strings.TrimSpace(problem.Language))
	langCfg, ok := s.languages[language]
	if !ok {
		return dto.SubmitResponse{}, ErrUnsupportedLanguage
	}

	result, execErr := s.execute(ctx, langCfg, payload.Code)
	verdict := judgeVerdict(result, execErr, problem.ExpectedOutput)

	submissionNum := 1
	if latest, err := s.submissions.Latest(ctx, payload.StudentID, payload.ProblemID); err == nil {
		submissionNum = latest.SubmissionNum + 1
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubmitResponse{}, err
	}

	submission := models.Submission{
		ProblemID:     payload.ProblemID,
		StudentID:     payload.StudentID,
		SubmissionNum: submissionNum,
		Code:          payload.Code,
		Verdict:       verdict,
		Output:        result.Stdout,
		Error:         combineErrors(result.Stderr, execErr),
		CPUTimeMs:     result.Duration.Milliseconds(),
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.SubmitResponse{}, err
	}

	observability.SubmissionsJudged().WithLabelValues(verdict).Inc()
	invalidateSnapshot(ctx, s.cache, payload.StudentID, payload.ProblemID)

	var practice *dto.PracticeQuestionResponse
	if submission.IsAccepted() {
		practice = s.bundlePractice(ctx, payload.StudentID, payload.ProblemID, payload.Code)
	}

	s.logger.Info().
		Uint("student_id", payload.StudentID).
		Uint("problem_id", payload.ProblemID).
		Int("submission_num", submissionNum).
		Str("verdict", verdict).
		Msg("submission judged")

	return dto.NewSubmitResponse(submission, practice), nil
}

func (s *submissionService) execute(ctx context.Context, langCfg languageConfig, code string) (dockerexec.ExecutionResult, error) {
	workspace, err := os.MkdirTemp(s.config.WorkspaceRoot, "submission-")
	if err != nil {
		return dockerexec.ExecutionResult{}, fmt.Errorf("create workspace: %w", err)
	}
	defer os.RemoveAll(workspace)

	filePath := filepath.Join(workspace, langCfg.FileName)
	if err := os.WriteFile(filePath, []byte(code), 0600); err != nil {
		return dockerexec.ExecutionResult{}, fmt.Errorf("write source: %w", err)
	}

	return s.executor.Run(ctx, dockerexec.ExecutionRequest{
		Image:           langCfg.Image,
		Cmd:             langCfg.Command,
		Timeout:         s.config.ExecutionTimeout,
		Workspace:       workspace,
		WorkingDir:      "/workspace",
		MemoryLimitMB:   int64(s.config.MemoryLimitMB),
		CPUShares:       int64(s.config.CPUShares),
		NetworkDisabled: true,
	})
}

// bundlePractice returns the first stored practice question for an accepted
// submission, or kicks background generation if none exist yet.
func (s *submissionService) bundlePractice(ctx context.Context, studentID, problemID uint, code string) *dto.PracticeQuestionResponse {
	questions, err := s.practices.ListForProblem(ctx, studentID, problemID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load practice set")
		return nil
	}

	if len(questions) > 0 {
		first := dto.NewPracticeQuestionResponse(questions[0])
		return &first
	}

	if s.generator != nil {
		s.generator.StartGeneration(studentID, problemID, code)
	}
	return nil
}

func judgeVerdict(result dockerexec.ExecutionResult, execErr error, expected string) string {
	switch {
	case result.TimedOut:
		return models.VerdictTimeLimit
	case execErr != nil, result.ExitCode != 0:
		return models.VerdictRuntimeError
	case normalizeOutput(result.Stdout) == normalizeOutput(expected):
		return models.VerdictAccepted
	default:
		return models.VerdictWrongAnswer
	}
}

// normalizeOutput strips trailing whitespace per line so cosmetic
// differences do not flip a verdict.
func normalizeOutput(output string) string {
	lines := strings.Split(strings.ReplaceAll(output, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func combineErrors(stderr string, execErr error) string {
	if execErr == nil {
		return strings.TrimSpace(stderr)
	}
	if stderr == "" {
		return execErr.Error()
	}
	return strings.TrimSpace(fmt.Sprintf("%s\n%s", stderr, execErr.Error()))
}
