// Package client provides a typed HTTP client for the debug coach API. It
// also implements helpflow.StatusSource so the polling engine can be driven
// against a live server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/codacad/debug-coach-api/internal/dto"
	"github.com/codacad/debug-coach-api/internal/helpflow"
)

// Config customises the API client.
type Config struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client is a typed HTTP client for the debug coach API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// APIError reports a non-success response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// New constructs an API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		http:    httpClient,
	}, nil
}

// Submit sends a code submission for judging.
func (c *Client) Submit(ctx context.Context, payload dto.SubmitRequest) (dto.SubmitResponse, error) {
	var out dto.SubmitResponse
	err := c.post(ctx, "/debugging/submit", payload, &out)
	return out, err
}

// HelpInit starts or resumes an AI help session for a submission snapshot.
func (c *Client) HelpInit(ctx context.Context, payload dto.HelpInitRequest) (dto.HelpInitResponse, error) {
	var out dto.HelpInitResponse
	err := c.post(ctx, "/debugging/help/init", payload, &out)
	return out, err
}

// HelpChat sends one chat turn within a resolved session.
func (c *Client) HelpChat(ctx context.Context, payload dto.HelpChatRequest) (dto.HelpChatResponse, error) {
	var out dto.HelpChatResponse
	err := c.post(ctx, "/debugging/help/chat", payload, &out)
	return out, err
}

// HelpHistory fetches the transcript for a submission snapshot. A submission
// number of zero selects the latest report for the problem.
func (c *Client) HelpHistory(ctx context.Context, studentID, problemID uint, submissionNum int) (dto.HelpHistoryResponse, error) {
	path := fmt.Sprintf("/debugging/help/history/%d/%d", studentID, problemID)
	if submissionNum > 0 {
		path = fmt.Sprintf("%s?submission_num=%d", path, submissionNum)
	}
	var out dto.HelpHistoryResponse
	err := c.get(ctx, path, &out)
	return out, err
}

// StudentCode fetches the per-problem snapshot.
func (c *Client) StudentCode(ctx context.Context, studentID, problemID uint) (dto.StudentCodeResponse, error) {
	path := fmt.Sprintf("/debugging/student_code/%d/%d", studentID, problemID)
	var out dto.StudentCodeResponse
	err := c.get(ctx, path, &out)
	return out, err
}

// AnswerPractice records a practice choice.
func (c *Client) AnswerPractice(ctx context.Context, payload dto.PracticeAnswerRequest) (dto.PracticeAnswerResponse, error) {
	var out dto.PracticeAnswerResponse
	err := c.post(ctx, "/debugging/practice/answer", payload, &out)
	return out, err
}

// Problems lists the available debugging problems.
func (c *Client) Problems(ctx context.Context) ([]dto.ProblemResponse, error) {
	var out []dto.ProblemResponse
	err := c.get(ctx, "/debugging/problems", &out)
	return out, err
}

// Status implements helpflow.StatusSource by querying help/init for the
// snapshot. Resumed sessions map to resolved with their transcript, running
// jobs to pending, and accepted or missing submissions to not_found.
func (c *Client) Status(ctx context.Context, studentID, problemID string, submissionNum int) (helpflow.StatusResult, error) {
	sid, err := strconv.ParseUint(studentID, 10, 64)
	if err != nil {
		return helpflow.StatusResult{}, fmt.Errorf("invalid student id: %w", err)
	}
	pid, err := strconv.ParseUint(problemID, 10, 64)
	if err != nil {
		return helpflow.StatusResult{}, fmt.Errorf("invalid problem id: %w", err)
	}

	resp, err := c.HelpInit(ctx, dto.HelpInitRequest{
		StudentID:     uint(sid),
		ProblemID:     uint(pid),
		SubmissionNum: submissionNum,
	})
	if err != nil {
		return helpflow.StatusResult{}, err
	}

	switch resp.Status {
	case "resumed":
		transcript := make([]helpflow.Message, 0, len(resp.ChatLog))
		for _, entry := range resp.ChatLog {
			transcript = append(transcript, helpflow.Message{
				Role:      entry.Role,
				Content:   entry.Content,
				Timestamp: entry.Timestamp,
			})
		}
		return helpflow.StatusResult{Status: helpflow.StatusResolved, Transcript: transcript}, nil
	case "started", "pending":
		return helpflow.StatusResult{Status: helpflow.StatusPending}, nil
	case "no_report":
		return helpflow.StatusResult{Status: helpflow.StatusNotFound}, nil
	default:
		return helpflow.StatusResult{}, fmt.Errorf("unexpected help status %q", resp.Status)
	}
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var wrapper envelope
	if err := json.NewDecoder(resp.Body).Decode(&wrapper); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if !wrapper.Success {
		return &APIError{StatusCode: resp.StatusCode, Message: wrapper.Message}
	}

	if out != nil && len(wrapper.Data) > 0 {
		if err := json.Unmarshal(wrapper.Data, out); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
	}

	return nil
}
