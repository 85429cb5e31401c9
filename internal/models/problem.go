package models

import (
	"time"

	"github.com/codacad/debug-coach-api/internal/helpflow"
)

// Problem is a debugging exercise: buggy code the student must repair until
// its output matches the expected output.
type Problem struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Title          string     `gorm:"size:200;not null" json:"title"`
	Prompt         string     `gorm:"type:text;not null" json:"prompt"`
	Language       string     `gorm:"size:32;not null" json:"language"`
	BuggyCode      string     `gorm:"type:text" json:"buggy_code"`
	ExpectedOutput string     `gorm:"type:text" json:"expected_output"`
	StartsAt       *time.Time `json:"starts_at"`
	EndsAt         *time.Time `json:"ends_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Window reports the problem's availability window at the given instant.
// Problems without bounds are always active.
func (p Problem) Window(now time.Time) helpflow.Window {
	if p.StartsAt != nil && now.Before(*p.StartsAt) {
		return helpflow.WindowNotStarted
	}
	if p.EndsAt != nil && now.After(*p.EndsAt) {
		return helpflow.WindowEnded
	}
	return helpflow.WindowActive
}
