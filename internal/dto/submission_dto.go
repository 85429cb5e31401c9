package dto

import "github.com/codacad/debug-coach-api/internal/models"

// SubmitRequest is the payload for judging a code submission.
type SubmitRequest struct {
	ProblemID uint   `json:"problem_id" validate:"required,gt=0"`
	StudentID uint   `json:"student_id" validate:"required,gt=0"`
	Code      string `json:"code" validate:"required"`
}

// SubmitResponse reports the judge verdict and, for accepted submissions
// with a ready practice set, the first practice question.
type SubmitResponse struct {
	Verdict          string                    `json:"verdict"`
	SubmissionNum    int                       `json:"submission_num"`
	Output           string                    `json:"output"`
	PracticeQuestion *PracticeQuestionResponse `json:"practice_question,omitempty"`
}

// NewSubmitResponse builds the response from a persisted submission.
func NewSubmitResponse(submission models.Submission, practice *PracticeQuestionResponse) SubmitResponse {
	return SubmitResponse{
		Verdict:          submission.Verdict,
		SubmissionNum:    submission.SubmissionNum,
		Output:           submission.Output,
		PracticeQuestion: practice,
	}
}
