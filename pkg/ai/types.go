package ai

import "context"

// ChatTurn is one prior exchange in a help conversation.
type ChatTurn struct {
	Role    string
	Content string
}

// AnalysisInput contains the artefacts needed to diagnose a failed
// submission.
type AnalysisInput struct {
	ProblemTitle     string
	Prompt           string
	BuggyCode        string
	Language         string
	SubmissionCode   string
	SubmissionOutput string
	ExpectedOutput   string
	Verdict          string
}

// AnalysisResult is the structured diagnosis returned by the coach.
type AnalysisResult struct {
	Summary string `json:"summary"`
	Opening string `json:"opening"`
}

// ReplyInput carries one chat turn within an existing help session.
type ReplyInput struct {
	Summary string
	History []ChatTurn
	Message string
}

// PracticeInput asks for follow-up questions generated from an accepted
// solution.
type PracticeInput struct {
	ProblemTitle string
	Prompt       string
	Language     string
	AcceptedCode string
	Count        int
}

// PracticeItem is one generated multiple-choice question.
type PracticeItem struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
}

// Coach describes an AI model that diagnoses buggy submissions, answers
// follow-up questions, and generates practice items.
type Coach interface {
	Analyze(ctx context.Context, input AnalysisInput) (AnalysisResult, error)
	Reply(ctx context.Context, input ReplyInput) (string, error)
	GeneratePractice(ctx context.Context, input PracticeInput) ([]PracticeItem, error)
}
