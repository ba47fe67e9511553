package model

import "time"

// Certificate is issued once per (student, course) after the enrollment reaches completed
type Certificate struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	StudentID         uint      `gorm:"not null;uniqueIndex:idx_certificates_student_course" json:"student_id"`
	CourseID          uint      `gorm:"not null;uniqueIndex:idx_certificates_student_course" json:"course_id"`
	EnrollmentID      uint      `gorm:"not null;index" json:"enrollment_id"`
	CertificateNumber string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"certificate_number"`
	IssuedAt          time.Time `gorm:"not null" json:"issued_at"`
	CreatedAt         time.Time `json:"created_at"`
}
