package service

import (
	"context"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/codacad/debug-coach-api/internal/models"
	"github.com/codacad/debug-coach-api/pkg/ai"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testRedis(t *testing.T) *redis.Client {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

type problemRepoStub struct {
	problems map[uint]models.Problem
}

func (r *problemRepoStub) List(ctx context.Context) ([]models.Problem, error) {
	out := make([]models.Problem, 0, len(r.problems))
	for _, problem := range r.problems {
		out = append(out, problem)
	}
	return out, nil
}

func (r *problemRepoStub) GetByID(ctx context.Context, id uint) (models.Problem, error) {
	problem, ok := r.problems[id]
	if !ok {
		return models.Problem{}, gorm.ErrRecordNotFound
	}
	return problem, nil
}

type submissionRepoStub struct {
	mu    sync.Mutex
	items []models.Submission
}

func (r *submissionRepoStub) Create(ctx context.Context, submission *models.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	submission.ID = uint(len(r.items) + 1)
	r.items = append(r.items, *submission)
	return nil
}

func (r *submissionRepoStub) Latest(ctx context.Context, studentID, problemID uint) (models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.Submission
	for i := range r.items {
		item := r.items[i]
		if item.StudentID != studentID || item.ProblemID != problemID {
			continue
		}
		if latest == nil || item.SubmissionNum > latest.SubmissionNum {
			latest = &r.items[i]
		}
	}
	if latest == nil {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return *latest, nil
}

func (r *submissionRepoStub) GetBySnapshot(ctx context.Context, studentID, problemID uint, submissionNum int) (models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if item.StudentID == studentID && item.ProblemID == problemID && item.SubmissionNum == submissionNum {
			return item, nil
		}
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

type practiceRepoStub struct {
	mu        sync.Mutex
	questions []models.PracticeQuestion
	answers   []models.PracticeAnswer
}

func (r *practiceRepoStub) CreateQuestions(ctx context.Context, questions []models.PracticeQuestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range questions {
		questions[i].ID = uint(len(r.questions) + i + 1)
	}
	r.questions = append(r.questions, questions...)
	return nil
}

func (r *practiceRepoStub) ListForProblem(ctx context.Context, studentID, problemID uint) ([]models.PracticeQuestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.PracticeQuestion, 0)
	for _, question := range r.questions {
		if question.StudentID != studentID || question.ProblemID != problemID {
			continue
		}
		question.Answers = r.answersFor(question.ID, studentID)
		out = append(out, question)
	}
	return out, nil
}

func (r *practiceRepoStub) GetQuestion(ctx context.Context, id uint) (models.PracticeQuestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, question := range r.questions {
		if question.ID == id {
			question.Answers = r.answersFor(question.ID, question.StudentID)
			return question, nil
		}
	}
	return models.PracticeQuestion{}, gorm.ErrRecordNotFound
}

func (r *practiceRepoStub) SaveAnswer(ctx context.Context, answer *models.PracticeAnswer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	answer.ID = uint(len(r.answers) + 1)
	r.answers = append(r.answers, *answer)
	return nil
}

func (r *practiceRepoStub) answersFor(questionID, studentID uint) []models.PracticeAnswer {
	out := make([]models.PracticeAnswer, 0)
	for _, answer := range r.answers {
		if answer.QuestionID == questionID && answer.StudentID == studentID {
			out = append(out, answer)
		}
	}
	return out
}

type helpRepoStub struct {
	mu       sync.Mutex
	reports  []models.HelpReport
	messages []models.ChatMessage
}

func (r *helpRepoStub) CreateReport(ctx context.Context, report *models.HelpReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	report.ID = uint(len(r.reports) + 1)
	r.reports = append(r.reports, *report)
	return nil
}

func (r *helpRepoStub) GetReport(ctx context.Context, studentID, problemID uint, submissionNum int) (models.HelpReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, report := range r.reports {
		if report.StudentID == studentID && report.ProblemID == problemID && report.SubmissionNum == submissionNum {
			report.Messages = r.messagesFor(report.ID)
			return report, nil
		}
	}
	return models.HelpReport{}, gorm.ErrRecordNotFound
}

func (r *helpRepoStub) LatestReport(ctx context.Context, studentID, problemID uint) (models.HelpReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.HelpReport
	for i := range r.reports {
		report := r.reports[i]
		if report.StudentID != studentID || report.ProblemID != problemID {
			continue
		}
		if latest == nil || report.SubmissionNum > latest.SubmissionNum {
			latest = &r.reports[i]
		}
	}
	if latest == nil {
		return models.HelpReport{}, gorm.ErrRecordNotFound
	}
	found := *latest
	found.Messages = r.messagesFor(found.ID)
	return found, nil
}

func (r *helpRepoStub) UpdateReportStatus(ctx context.Context, reportID uint, status, summary string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.reports {
		if r.reports[i].ID == reportID {
			r.reports[i].Status = status
			if summary != "" {
				r.reports[i].Summary = summary
			}
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *helpRepoStub) DeleteReport(ctx context.Context, reportID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.reports[:0]
	for _, report := range r.reports {
		if report.ID != reportID {
			kept = append(kept, report)
		}
	}
	r.reports = kept

	keptMessages := r.messages[:0]
	for _, message := range r.messages {
		if message.HelpReportID != reportID {
			keptMessages = append(keptMessages, message)
		}
	}
	r.messages = keptMessages
	return nil
}

func (r *helpRepoStub) AppendMessage(ctx context.Context, message *models.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	message.ID = uint(len(r.messages) + 1)
	r.messages = append(r.messages, *message)
	return nil
}

func (r *helpRepoStub) messagesFor(reportID uint) []models.ChatMessage {
	out := make([]models.ChatMessage, 0)
	for _, message := range r.messages {
		if message.HelpReportID == reportID {
			out = append(out, message)
		}
	}
	return out
}

type coachStub struct {
	mu            sync.Mutex
	analysis      ai.AnalysisResult
	analysisErr   error
	reply         string
	replyErr      error
	practice      []ai.PracticeItem
	practiceErr   error
	analyzeCalls  int
	practiceCalls int
}

func (c *coachStub) Analyze(ctx context.Context, input ai.AnalysisInput) (ai.AnalysisResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.analyzeCalls++
	return c.analysis, c.analysisErr
}

func (c *coachStub) Reply(ctx context.Context, input ai.ReplyInput) (string, error) {
	return c.reply, c.replyErr
}

func (c *coachStub) GeneratePractice(ctx context.Context, input ai.PracticeInput) ([]ai.PracticeItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.practiceCalls++
	return c.practice, c.practiceErr
}
