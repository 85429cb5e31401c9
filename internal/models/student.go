package models

import "time"

// Student represents a learner account on the platform.
type Student struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:120;not null" json:"name"`
	Email     string    `gorm:"size:160;uniqueIndex;not null" json:"email"`
	Class     string    `gorm:"size:32" json:"class"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
