package dto

import (
	"time"

	"github.com/codacad/debug-coach-api/internal/helpflow"
	"github.com/codacad/debug-coach-api/internal/models"
)

// ProblemResponse lists a debugging exercise for the sidebar.
type ProblemResponse struct {
	ID        uint            `json:"id"`
	Title     string          `json:"title"`
	Prompt    string          `json:"prompt"`
	Language  string          `json:"language"`
	BuggyCode string          `json:"buggy_code"`
	Window    helpflow.Window `json:"window"`
}

// NewProblemResponse converts a stored problem.
func NewProblemResponse(problem models.Problem, now time.Time) ProblemResponse {
	return ProblemResponse{
		ID:        problem.ID,
		Title:     problem.Title,
		Prompt:    problem.Prompt,
		Language:  problem.Language,
		BuggyCode: problem.BuggyCode,
		Window:    problem.Window(now),
	}
}

// NewProblemResponseSlice converts a list of problems.
func NewProblemResponseSlice(problems []models.Problem, now time.Time) []ProblemResponse {
	out := make([]ProblemResponse, 0, len(problems))
	for _, problem := range problems {
		out = append(out, NewProblemResponse(problem, now))
	}
	return out
}
