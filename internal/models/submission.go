package models

import "time"

// Verdict values the judge can assign.
const (
	VerdictAccepted     = "Accepted"
	VerdictWrongAnswer  = "Wrong Answer"
	VerdictTimeLimit    = "Time Limit Exceeded"
	VerdictRuntimeError = "Runtime Error"
)

// Submission is one judged attempt at a problem. SubmissionNum is strictly
// monotonic per (student, problem), starting at 1.
type Submission struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ProblemID     uint      `gorm:"not null;uniqueIndex:idx_submission_snapshot,priority:2" json:"problem_id"`
	StudentID     uint      `gorm:"not null;uniqueIndex:idx_submission_snapshot,priority:1" json:"student_id"`
	SubmissionNum int       `gorm:"not null;uniqueIndex:idx_submission_snapshot,priority:3" json:"submission_num"`
	Code          string    `gorm:"type:text;not null" json:"code"`
	Verdict       string    `gorm:"size:32;not null" json:"verdict"`
	Output        string    `gorm:"type:text" json:"output"`
	Error         string    `gorm:"type:text" json:"error"`
	CPUTimeMs     int64     `gorm:"default:0" json:"cpu_time_ms"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Problem       Problem   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// IsAccepted reports whether the submission passed.
func (s Submission) IsAccepted() bool {
	return s.Verdict == VerdictAccepted
}
