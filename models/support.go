package models

import "time"

const (
	SupportStatusOpen     = "open"
	SupportStatusResolved = "resolved"
)

type SupportQuery struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Subject   string    `gorm:"size:255;not null" json:"subject"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Status    string    `gorm:"not null;default:'open';check:status IN ('open', 'resolved')" json:"status"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AdminStats backs the admin dashboard counters.
type AdminStats struct {
	Courses   int64 `json:"courses"`
	Questions int64 `json:"questions"`
	Queries   int64 `json:"queries"`
}

// StudentStats backs the student dashboard counters.
type StudentStats struct {
	TotalInterviews  int64 `json:"total_interviews"`
	AvailableCourses int64 `json:"available_courses"`
}
