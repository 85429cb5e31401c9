package models

import "time"

// HelpReport status values.
const (
	HelpReportStatusPending  = "pending"
	HelpReportStatusResolved = "resolved"
	HelpReportStatusFailed   = "failed"
)

// Chat roles.
const (
	ChatRoleUser  = "user"
	ChatRoleAgent = "agent"
)

// HelpReport is one AI analysis of a specific submission snapshot. At most
// one report exists per (student, problem, submission_num).
type HelpReport struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	StudentID     uint          `gorm:"not null;uniqueIndex:idx_help_snapshot,priority:1" json:"student_id"`
	ProblemID     uint          `gorm:"not null;uniqueIndex:idx_help_snapshot,priority:2" json:"problem_id"`
	SubmissionNum int           `gorm:"not null;uniqueIndex:idx_help_snapshot,priority:3" json:"submission_num"`
	Status        string        `gorm:"size:16;not null" json:"status"`
	Summary       string        `gorm:"type:text" json:"summary"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	Messages      []ChatMessage `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"messages"`
}

// IsResolved reports whether the analysis finished successfully.
func (r HelpReport) IsResolved() bool {
	return r.Status == HelpReportStatusResolved
}

// ChatMessage is one transcript entry of a help session.
type ChatMessage struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	HelpReportID uint      `gorm:"not null;index" json:"help_report_id"`
	Role         string    `gorm:"size:8;not null" json:"role"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	CreatedAt    time.Time `json:"created_at"`
}
