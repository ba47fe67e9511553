package model

import (
	"time"

	"gorm.io/datatypes"
)

// EnrollmentStatus is derived from the progress percentage, never set by clients
type EnrollmentStatus string

const (
	EnrollmentStatusEnrolled  EnrollmentStatus = "enrolled"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
)

// Enrollment links one student to one course. The (student_id, course_id) unique index
// is what keeps a student from holding two enrollments in the same course.
// StudentID is nulled, not deleted, when the account goes away so revenue history survives.
type Enrollment struct {
	ID               uint                      `gorm:"primaryKey" json:"id"`
	StudentID        *uint                     `gorm:"uniqueIndex:idx_enrollment_student_course" json:"student_id"`
	CourseID         uint                      `gorm:"not null;index;uniqueIndex:idx_enrollment_student_course" json:"course_id"`
	Status           EnrollmentStatus          `gorm:"type:varchar(20);not null;default:'enrolled'" json:"status"`
	CompletedLessons datatypes.JSONSlice[uint] `json:"completed_lessons"` // completion order, no duplicates
	Percentage       int                       `gorm:"not null;default:0" json:"percentage"`
	AmountPaid       float64                   `gorm:"not null;default:0" json:"amount_paid"`
	PaymentReference *string                   `gorm:"type:varchar(100);index" json:"-"`
	EnrolledAt       time.Time                 `gorm:"not null" json:"enrolled_at"`
	CompletedAt      *time.Time                `json:"completed_at"`
	Version          int                       `gorm:"not null;default:0" json:"-"` // compare-and-swap guard
	CreatedAt        time.Time                 `json:"created_at"`
	UpdatedAt        time.Time                 `json:"updated_at"`

	// Relationships
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

// HasCompleted reports whether lessonID is already in the completed set
func (e *Enrollment) HasCompleted(lessonID uint) bool {
	for _, id := range e.CompletedLessons {
		if id == lessonID {
			return true
		}
	}
	return false
}

// IsCompleted reports the derived completion state
func (e *Enrollment) IsCompleted() bool {
	return e.Status == EnrollmentStatusCompleted
}
