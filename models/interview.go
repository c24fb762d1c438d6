package models

import (
	"time"

	"gorm.io/datatypes"
)

// ResultSummary is stored as JSON on the interview row.
type ResultSummary struct {
	Answers  []string `json:"answers"`
	Feedback string   `json:"feedback,omitempty"`
}

// Interview is one completed practice run of a course by a student.
type Interview struct {
	ID                string                            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	StudentID         string                            `gorm:"type:uuid;not null;index" json:"student_id"`
	CourseID          string                            `gorm:"type:uuid;not null;index" json:"course_id"`
	Date              time.Time                         `gorm:"not null;index" json:"date"`
	QuestionsAnswered int                               `gorm:"not null;default:0" json:"questions_answered"`
	ResultSummary     datatypes.JSONType[ResultSummary] `gorm:"type:jsonb" json:"result_summary"`
	CreatedAt         time.Time                         `json:"created_at"`

	// Relationships
	Course  *Course           `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
	Answers []InterviewAnswer `gorm:"foreignKey:InterviewID;constraint:OnDelete:CASCADE" json:"answers,omitempty"`
}

// InterviewAnswer keeps the per-question transcript of an interview in order.
type InterviewAnswer struct {
	ID          string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	InterviewID string    `gorm:"type:uuid;not null;index" json:"interview_id"`
	QuestionID  *string   `gorm:"type:uuid;index" json:"question_id,omitempty"`
	Position    int       `gorm:"not null" json:"position"`
	Transcript  string    `gorm:"type:text;not null" json:"transcript"`
	AudioObject string    `gorm:"size:500" json:"audio_object,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
