package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/codacad/debug-coach-api/internal/dto"
	"github.com/codacad/debug-coach-api/internal/models"
	"github.com/codacad/debug-coach-api/internal/observability"
	"github.com/codacad/debug-coach-api/internal/repository"
	"github.com/codacad/debug-coach-api/pkg/ai"
)

// HelpResolvedSubject is the NATS subject announcing finished analyses.
const HelpResolvedSubject = "debugcoach.help.resolved"

// Help init statuses returned to the client.
const (
	HelpStatusResumed  = "resumed"
	HelpStatusStarted  = "started"
	HelpStatusPending  = "pending"
	HelpStatusNoReport = "no_report"
)

// ErrHelpReportNotFound indicates no report exists for the snapshot.
var ErrHelpReportNotFound = errors.New("help report not found")

// ErrHelpReportNotReady indicates the analysis has not resolved yet.
var ErrHelpReportNotReady = errors.New("help report not ready")

// ErrSubmissionNotFound indicates the referenced submission does not exist.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrSubmissionAccepted indicates help was requested for a passing submission.
var ErrSubmissionAccepted = errors.New("submission already accepted")

// HelpService manages AI help sessions over submission snapshots.
type HelpService interface {
	Init(ctx context.Context, payload dto.HelpInitRequest) (dto.HelpInitResponse, error)
	Chat(ctx context.Context, payload dto.HelpChatRequest) (dto.HelpChatResponse, error)
	History(ctx context.Context, studentID, problemID uint, submissionNum int) (dto.HelpHistoryResponse, error)
	Start(ctx context.Context) error
}

// HelpConfig tunes the background analysis pipeline.
type HelpConfig struct {
	AnalysisTimeout time.Duration
	JobMarkerTTL    time.Duration
}

type helpResolvedEvent struct {
	StudentID     uint   `json:"student_id"`
	ProblemID     uint   `json:"problem_id"`
	SubmissionNum int    `json:"submission_num"`
	Status        string `json:"status"`
}

type helpService struct {
	reports     repository.HelpRepository
	submissions repository.SubmissionRepository
	problems    repository.ProblemRepository
	coach       ai.Coach
	cache       *redis.Client
	nats        *nats.Conn
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	config      HelpConfig
}

// NewHelpService constructs the help service.
func NewHelpService(helpRepo repository.HelpRepository, submissionRepo repository.SubmissionRepository, problemRepo repository.ProblemRepository, coach ai.Coach, cache *redis.Client, natsConn *nats.Conn, validate *validator.Validate, logger zerolog.Logger, cfg HelpConfig) HelpService {
	if cfg.AnalysisTimeout == 0 {
		cfg.AnalysisTimeout = 90 * time.Second
	}
	if cfg.JobMarkerTTL == 0 {
		cfg.JobMarkerTTL = 3 * time.Minute
	}

	return &helpService{
		reports:     helpRepo,
		submissions: submissionRepo,
		problems:    problemRepo,
		coach:       coach,
		cache:       cache,
		nats:        natsConn,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "help_service").Logger(),
		config:      cfg,
	}
}

// Init resumes a resolved session, reports a pending one, or starts a new
// background analysis for the snapshot.
func (s *helpService) Init(ctx context.Context, payload dto.HelpInitRequest) (dto.HelpInitResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.HelpInitResponse{}, err
	}

	submission, err := s.submissions.GetBySnapshot(ctx, payload.StudentID, payload.ProblemID, payload.SubmissionNum)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.HelpInitResponse{}, ErrSubmissionNotFound
		}
		return dto.HelpInitResponse{}, err
	}
	if submission.IsAccepted() {
		return dto.HelpInitResponse{}, ErrSubmissionAccepted
	}

	report, err := s.reports.GetReport(ctx, payload.StudentID, payload.ProblemID, payload.SubmissionNum)
	switch {
	case err == nil:
		return s.resume(ctx, report, payload, submission)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.begin(ctx, payload, submission)
	default:
		return dto.HelpInitResponse{}, err
	}
}

func (s *helpService) resume(ctx context.Context, report models.HelpReport, payload dto.HelpInitRequest, submission models.Submission) (dto.HelpInitResponse, error) {
	switch report.Status {
	case models.HelpReportStatusResolved:
		if payload.ForceRefresh {
			if err := s.reports.DeleteReport(ctx, report.ID); err != nil {
				return dto.HelpInitResponse{}, err
			}
			return s.begin(ctx, payload, submission)
		}
		resp := dto.HelpInitResponse{
			Status:  HelpStatusResumed,
			ChatLog: dto.NewChatLog(report.Messages),
		}
		// The first transcript entry is the coach's opening message.
		if len(report.Messages) > 0 {
			resp.Reply = report.Messages[0].Content
		}
		return resp, nil

	case models.HelpReportStatusPending:
		return dto.HelpInitResponse{Status: HelpStatusPending}, nil

	default:
		// A failed analysis is discarded and retried from scratch.
		if err := s.reports.DeleteReport(ctx, report.ID); err != nil {
			return dto.HelpInitResponse{}, err
		}
		return s.begin(ctx, payload, submission)
	}
}

func (s *helpService) begin(ctx context.Context, payload dto.HelpInitRequest, submission models.Submission) (dto.HelpInitResponse, error) {
	problem, err := s.problems.GetByID(ctx, payload.ProblemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.HelpInitResponse{}, ErrProblemNotFound
		}
		return dto.HelpInitResponse{}, err
	}

	report := models.HelpReport{
		StudentID:     payload.StudentID,
		ProblemID:     payload.ProblemID,
		SubmissionNum: payload.SubmissionNum,
		Status:        models.HelpReportStatusPending,
	}
	if err := s.reports.CreateReport(ctx, &report); err != nil {
		return dto.HelpInitResponse{}, err
	}

	s.markJob(ctx, payload)
	go s.analyze(report, problem, submission)

	return dto.HelpInitResponse{Status: HelpStatusStarted}, nil
}

func (s *helpService) markJob(ctx context.Context, payload dto.HelpInitRequest) {
	if s.cache == nil {
		return
	}
	key := helpJobKey(payload.StudentID, payload.ProblemID, payload.SubmissionNum)
	if err := s.cache.Set(ctx, key, "1", s.config.JobMarkerTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to mark analysis job")
	}
}

// analyze runs in the background; it must not inherit the request context.
func (s *helpService) analyze(report models.HelpReport, problem models.Problem, submission models.Submission) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.AnalysisTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.coach.Analyze(ctx, ai.AnalysisInput{
		ProblemTitle:     problem.Title,
		Prompt:           problem.Prompt,
		BuggyCode:        problem.BuggyCode,
		Language:         problem.Language,
		SubmissionCode:   submission.Code,
		SubmissionOutput: submission.Output,
		ExpectedOutput:   problem.ExpectedOutput,
		Verdict:          submission.Verdict,
	})
	observability.HelpAnalysisDuration().Observe(time.Since(start).Seconds())

	status := models.HelpReportStatusResolved
	if err != nil {
		status = models.HelpReportStatusFailed
		s.logger.Error().Err(err).
			Uint("report_id", report.ID).
			Uint("problem_id", report.ProblemID).
			Msg("help analysis failed")
	} else {
		message := models.ChatMessage{
			HelpReportID: report.ID,
			Role:         models.ChatRoleAgent,
			Content:      result.Opening,
		}
		if appendErr := s.reports.AppendMessage(ctx, &message); appendErr != nil {
			s.logger.Error().Err(appendErr).Uint("report_id", report.ID).Msg("failed to store opening message")
			status = models.HelpReportStatusFailed
		}
	}

	if err := s.reports.UpdateReportStatus(ctx, report.ID, status, result.Summary); err != nil {
		s.logger.Error().Err(err).Uint("report_id", report.ID).Msg("failed to update report status")
	}

	observability.HelpAnalyses().WithLabelValues(status).Inc()
	s.clearJob(ctx, report)
	s.publishResolved(report, status)
}

func (s *helpService) clearJob(ctx context.Context, report models.HelpReport) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, helpJobKey(report.StudentID, report.ProblemID, report.SubmissionNum)).Err()
}

func (s *helpService) publishResolved(report models.HelpReport, status string) {
	if s.nats == nil {
		return
	}

	event := helpResolvedEvent{
		StudentID:     report.StudentID,
		ProblemID:     report.ProblemID,
		SubmissionNum: report.SubmissionNum,
		Status:        status,
	}
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to marshal resolved event")
		return
	}
	if err := s.nats.Publish(HelpResolvedSubject, data); err != nil {
		s.logger.Warn().Err(err).Str("subject", HelpResolvedSubject).Msg("failed to publish resolved event")
	}
}

// Start subscribes to analysis completions so every instance drops its
// cached snapshot for the affected student.
func (s *helpService) Start(ctx context.Context) error {
	if s.nats == nil {
		return nil
	}

	sub, err := s.nats.Subscribe(HelpResolvedSubject, func(msg *nats.Msg) {
		var event helpResolvedEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			s.logger.Warn().Err(err).Msg("failed to decode resolved event")
			return
		}
		invalidateSnapshot(context.Background(), s.cache, event.StudentID, event.ProblemID)
		s.logger.Debug().
			Uint("student_id", event.StudentID).
			Uint("problem_id", event.ProblemID).
			Str("status", event.Status).
			Msg("help analysis finished")
	})
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		if err := sub.Unsubscribe(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to unsubscribe from resolved events")
		}
	}()

	return nil
}

// Chat appends one student turn to a resolved session and returns the
// coach reply.
func (s *helpService) Chat(ctx context.Context, payload dto.HelpChatRequest) (dto.HelpChatResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.HelpChatResponse{}, err
	}

	report, err := s.reports.GetReport(ctx, payload.StudentID, payload.ProblemID, payload.SubmissionNum)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.HelpChatResponse{}, ErrHelpReportNotFound
		}
		return dto.HelpChatResponse{}, err
	}
	if !report.IsResolved() {
		return dto.HelpChatResponse{}, ErrHelpReportNotReady
	}

	message := s.sanitizer.Sanitize(payload.Message)

	history := make([]ai.ChatTurn, 0, len(report.Messages))
	for _, entry := range report.Messages {
		history = append(history, ai.ChatTurn{Role: entry.Role, Content: entry.Content})
	}

	reply, err := s.coach.Reply(ctx, ai.ReplyInput{
		Summary: report.Summary,
		History: history,
		Message: message,
	})
	if err != nil {
		return dto.HelpChatResponse{}, err
	}

	userTurn := models.ChatMessage{HelpReportID: report.ID, Role: models.ChatRoleUser, Content: message}
	if err := s.reports.AppendMessage(ctx, &userTurn); err != nil {
		return dto.HelpChatResponse{}, err
	}
	agentTurn := models.ChatMessage{HelpReportID: report.ID, Role: models.ChatRoleAgent, Content: reply}
	if err := s.reports.AppendMessage(ctx, &agentTurn); err != nil {
		return dto.HelpChatResponse{}, err
	}

	return dto.HelpChatResponse{Reply: reply}, nil
}

// History returns the transcript for a snapshot. A submission number of zero
// selects the latest report for the problem.
func (s *helpService) History(ctx context.Context, studentID, problemID uint, submissionNum int) (dto.HelpHistoryResponse, error) {
	var (
		report models.HelpReport
		err    error
	)
	if submissionNum > 0 {
		report, err = s.reports.GetReport(ctx, studentID, problemID, submissionNum)
	} else {
		report, err = s.reports.LatestReport(ctx, studentID, problemID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.HelpHistoryResponse{}, ErrHelpReportNotFound
		}
		return dto.HelpHistoryResponse{}, err
	}

	return dto.HelpHistoryResponse{ChatLog: dto.NewChatLog(report.Messages)}, nil
}
