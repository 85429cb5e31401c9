package dto

import (
	"time"

	"github.com/codacad/debug-coach-api/internal/helpflow"
	"github.com/codacad/debug-coach-api/internal/models"
)

// StudentCodeData is the per-problem snapshot the client reloads when a
// problem is selected.
type StudentCodeData struct {
	Code          string                `json:"code"`
	Result        string                `json:"result"`
	IsAccepted    bool                  `json:"is_accepted"`
	SubmissionNum int                   `json:"submission_num"`
	Window        helpflow.Window       `json:"window"`
	Practice      PracticeBlockResponse `json:"practice"`
}

// StudentCodeResponse wraps the snapshot with a status field.
type StudentCodeResponse struct {
	Status string          `json:"status"`
	Data   StudentCodeData `json:"data"`
}

// NewStudentCodeResponse builds the snapshot from the latest submission (nil
// if the student has not submitted yet) and the practice block.
func NewStudentCodeResponse(problem models.Problem, latest *models.Submission, practice PracticeBlockResponse, now time.Time) StudentCodeResponse {
	data := StudentCodeData{
		Window:   problem.Window(now),
		Practice: practice,
	}

	if latest != nil {
		data.Code = latest.Code
		data.Result = latest.Verdict
		data.IsAccepted = latest.IsAccepted()
		data.SubmissionNum = latest.SubmissionNum
	}

	return StudentCodeResponse{Status: "ok", Data: data}
}
