package models

import (
	"time"

	"gorm.io/datatypes"
)

// PracticeQuestion is a multiple-choice follow-up generated from a student's
// accepted solution.
type PracticeQuestion struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	StudentID    uint             `gorm:"not null;index:idx_practice_owner" json:"student_id"`
	ProblemID    uint             `gorm:"not null;index:idx_practice_owner" json:"problem_id"`
	Prompt       string           `gorm:"type:text;not null" json:"prompt"`
	Options      datatypes.JSON   `gorm:"not null" json:"options"`
	CorrectIndex int              `gorm:"not null" json:"-"`
	Explanation  string           `gorm:"type:text" json:"explanation"`
	CreatedAt    time.Time        `json:"created_at"`
	Answers      []PracticeAnswer `gorm:"foreignKey:QuestionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// PracticeAnswer records one attempt at a practice question.
type PracticeAnswer struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	QuestionID  uint      `gorm:"not null;index" json:"question_id"`
	StudentID   uint      `gorm:"not null" json:"student_id"`
	ChoiceIndex int       `gorm:"not null" json:"choice_index"`
	Correct     bool      `gorm:"not null" json:"correct"`
	CreatedAt   time.Time `json:"created_at"`
}
