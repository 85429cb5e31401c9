package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "coach",
		Subsystem: "ai",
		Name:      "request_duration_seconds",
		Help:      "Duration of AI coach requests",
	}, []string{"model", "op"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coach",
		Subsystem: "ai",
		Name:      "request_failures_total",
		Help:      "Number of AI coach request failures",
	}, []string{"model", "op"})
)

// OpenAIConfig defines configuration options for the OpenAI coach.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAICoach implements Coach against the OpenAI chat completion API.
type OpenAICoach struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAICoach builds a new coach using the provided configuration.
func NewOpenAICoach(cfg OpenAIConfig) (*OpenAICoach, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 768
	}

	tracer := otel.Tracer("github.com/codacad/debug-coach-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAICoach{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Analyze diagnoses a failed submission and returns the diagnosis plus the
// opening message for the help chat.
func (c *OpenAICoach) Analyze(parent context.Context, input AnalysisInput) (AnalysisResult, error) {
	ctx, span := c.tracer.Start(parent, "openai.analyze", trace.WithAttributes(
		attribute.String("model", c.cfg.Model),
	))
	defer span.End()

	content, err := c.complete(ctx, "analyze", []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: analyzeSystemPrompt()},
		{Role: openai.ChatMessageRoleUser, Content: buildAnalysisPrompt(input)},
	}, true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return AnalysisResult{}, err
	}

	var result AnalysisResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		aiFailures.WithLabelValues(c.cfg.Model, "analyze").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return AnalysisResult{}, fmt.Errorf("parse analysis json: %w", err)
	}

	if result.Opening == "" {
		result.Opening = result.Summary
	}

	return result, nil
}

// Reply answers one follow-up question, continuing the Socratic scaffold
// established by the analysis.
func (c *OpenAICoach) Reply(parent context.Context, input ReplyInput) (string, error) {
	ctx, span := c.tracer.Start(parent, "openai.reply", trace.WithAttributes(
		attribute.String("model", c.cfg.Model),
		attribute.Int("history_len", len(input.History)),
	))
	defer span.End()

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: replySystemPrompt(input.Summary)},
	}
	for _, turn := range input.History {
		role := openai.ChatMessageRoleAssistant
		if turn.Role == "user" {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: input.Message})

	content, err := c.complete(ctx, "reply", messages, false)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	return content, nil
}

// GeneratePractice produces multiple-choice follow-up questions from an
// accepted solution.
func (c *OpenAICoach) GeneratePractice(parent context.Context, input PracticeInput) ([]PracticeItem, error) {
	ctx, span := c.tracer.Start(parent, "openai.generate_practice", trace.WithAttributes(
		attribute.String("model", c.cfg.Model),
		attribute.Int("count", input.Count),
	))
	defer span.End()

	content, err := c.complete(ctx, "practice", []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: practiceSystemPrompt()},
		{Role: openai.ChatMessageRoleUser, Content: buildPracticePrompt(input)},
	}, true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	items, err := parsePracticeResponse(content)
	if err != nil {
		aiFailures.WithLabelValues(c.cfg.Model, "practice").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return items, nil
}

func (c *OpenAICoach) complete(ctx context.Context, op string, messages []openai.ChatCompletionMessage, jsonResponse bool) (string, error) {
	request := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Messages:    messages,
	}
	if jsonResponse {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(c.cfg.Model, op).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues(c.cfg.Model, op).Inc()
		return "", fmt.Errorf("openai %s: %w", op, err)
	}

	if len(resp.Choices) == 0 {
		aiFailures.WithLabelValues(c.cfg.Model, op).Inc()
		return "", fmt.Errorf("no choices returned from openai")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func analyzeSystemPrompt() string {
	return "You are a debugging tutor for novice programmers. Diagnose why the submission fails without giving away the full f" +
		"ix. Respond with a JSON object containing summary (one-paragraph diagnosis for internal use) and opening (the first me" +
		"ssage to show the student, guiding them towards the bug with questions)."
}

func replySystemPrompt(summary string) string {
	prompt := "You are a debugging tutor. Guide the student towards the fix step by step; never paste a corrected solution."
	if summary != "" {
		prompt += "\nDiagnosis of their code: " + summary
	}
	return prompt
}

func practiceSystemPrompt() string {
	return "You generate multiple-choice comprehension questions about a student's accepted bug fix. Respond with a JSON objec" +
		"t containing questions: an array of {prompt, options, correct_index, explanation} with exactly one correct option each."
}

func buildAnalysisPrompt(input AnalysisInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Problem\n")
	builder.WriteString(input.ProblemTitle)
	builder.WriteString("\n\n## Prompt\n")
	builder.WriteString(input.Prompt)
	builder.WriteString("\n\n## Original Buggy Code\n")
	builder.WriteString(input.BuggyCode)
	builder.WriteString("\n\n## Language\n")
	builder.WriteString(input.Language)
	builder.WriteString("\n\n## Student Submission\n")
	builder.WriteString(input.SubmissionCode)
	builder.WriteString("\n\n## Verdict\n")
	builder.WriteString(input.Verdict)
	builder.WriteString("\n\n## Program Output\n")
	builder.WriteString(input.SubmissionOutput)
	builder.WriteString("\n\n## Expected Output\n")
	builder.WriteString(input.ExpectedOutput)
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func buildPracticePrompt(input PracticeInput) string {
	count := input.Count
	if count <= 0 {
		count = 3
	}

	builder := strings.Builder{}
	builder.WriteString("# Problem\n")
	builder.WriteString(input.ProblemTitle)
	builder.WriteString("\n\n## Prompt\n")
	builder.WriteString(input.Prompt)
	builder.WriteString("\n\n## Language\n")
	builder.WriteString(input.Language)
	builder.WriteString("\n\n## Accepted Solution\n")
	builder.WriteString(input.AcceptedCode)
	builder.WriteString(fmt.Sprintf("\nGenerate %d questions. Return JSON.", count))
	return builder.String()
}

func parsePracticeResponse(content string) ([]PracticeItem, error) {
	type payload struct {
		Questions []PracticeItem `json:"questions"`
	}

	var data payload
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return nil, fmt.Errorf("parse practice json: %w", err)
	}

	items := make([]PracticeItem, 0, len(data.Questions))
	for _, item := range data.Questions {
		if item.Prompt == "" || len(item.Options) < 2 {
			continue
		}
		if item.CorrectIndex < 0 || item.CorrectIndex >= len(item.Options) {
			continue
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no usable practice questions returned")
	}

	return items, nil
}
