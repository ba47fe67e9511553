package model

import "time"

// Review is one student's rating of a course they are enrolled in
type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_reviews_student_course" json:"student_id"`
	CourseID  uint      `gorm:"not null;index;uniqueIndex:idx_reviews_student_course" json:"course_id"`
	Rating    int       `gorm:"not null" json:"rating"` // 1..5
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
