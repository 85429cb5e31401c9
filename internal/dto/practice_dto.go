package dto

import (
	"encoding/json"

	"github.com/codacad/debug-coach-api/internal/models"
)

// PracticeQuestionResponse serialises one multiple-choice item. The correct
// index is never exposed; Correct reflects whether the student has already
// answered this item correctly.
type PracticeQuestionResponse struct {
	ID       uint     `json:"id"`
	Prompt   string   `json:"prompt"`
	Options  []string `json:"options"`
	Answered bool     `json:"answered"`
	Correct  bool     `json:"correct"`
}

// PracticeAnswerRequest records a choice for one practice question.
type PracticeAnswerRequest struct {
	StudentID   uint `json:"student_id" validate:"required,gt=0"`
	QuestionID  uint `json:"question_id" validate:"required,gt=0"`
	ChoiceIndex *int `json:"choice_index" validate:"required,gte=0"`
}

// PracticeAnswerResponse reports correctness of the answered item and
// whether the whole set is now complete.
type PracticeAnswerResponse struct {
	Correct     bool   `json:"correct"`
	AllCorrect  bool   `json:"all_correct"`
	Explanation string `json:"explanation,omitempty"`
}

// PracticeBlockResponse summarises the practice set for one problem.
type PracticeBlockResponse struct {
	Exists     bool                       `json:"exists"`
	Generating bool                       `json:"generating"`
	AllCorrect bool                       `json:"all_correct"`
	Data       []PracticeQuestionResponse `json:"data"`
}

// NewPracticeQuestionResponse converts a stored question, marking answer
// progress from its recorded attempts.
func NewPracticeQuestionResponse(question models.PracticeQuestion) PracticeQuestionResponse {
	var options []string
	if len(question.Options) > 0 {
		_ = json.Unmarshal(question.Options, &options)
	}

	answered := len(question.Answers) > 0
	correct := false
	for _, answer := range question.Answers {
		if answer.Correct {
			correct = true
			break
		}
	}

	return PracticeQuestionResponse{
		ID:       question.ID,
		Prompt:   question.Prompt,
		Options:  options,
		Answered: answered,
		Correct:  correct,
	}
}

// NewPracticeBlockResponse converts a stored practice set.
func NewPracticeBlockResponse(questions []models.PracticeQuestion, generating bool) PracticeBlockResponse {
	block := PracticeBlockResponse{
		Exists:     len(questions) > 0,
		Generating: generating,
		Data:       make([]PracticeQuestionResponse, 0, len(questions)),
	}

	allCorrect := len(questions) > 0
	for _, question := range questions {
		item := NewPracticeQuestionResponse(question)
		if !item.Correct {
			allCorrect = false
		}
		block.Data = append(block.Data, item)
	}
	block.AllCorrect = allCorrect

	return block
}
