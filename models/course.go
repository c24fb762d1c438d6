package models

import (
	"time"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Course groups the questions a student is interviewed on.
type Course struct {
	ID          string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Category    string    `gorm:"size:100" json:"category"`
	CreatedBy   *string   `gorm:"type:uuid;index" json:"created_by,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relationships
	Questions []Question `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}

// Question is a single interview prompt. ExpectedAnswer is only shown to admins.
type Question struct {
	ID             string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CourseID       string    `gorm:"type:uuid;not null;index" json:"course_id"`
	QuestionText   string    `gorm:"type:text;not null" json:"question_text"`
	Difficulty     string    `gorm:"not null;default:'medium';check:difficulty IN ('easy', 'medium', 'hard')" json:"difficulty"`
	ExpectedAnswer string    `gorm:"type:text" json:"expected_answer,omitempty"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ValidDifficulty reports whether d is one of easy, medium or hard.
func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// CourseTitle is the narrow projection used by the question manager.
type CourseTitle struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
