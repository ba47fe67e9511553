package model

import (
	"time"

	"gorm.io/datatypes"
)

// PaymentStatus tracks how far a confirmed payment got through enrollment
type PaymentStatus string

const (
	PaymentStatusReceived  PaymentStatus = "received"  // recorded, enrollment not confirmed yet
	PaymentStatusProcessed PaymentStatus = "processed" // enrollment exists for the payer
	PaymentStatusFailed    PaymentStatus = "failed"    // permanent failure (e.g. course gone)
)

// CoursePayment is the inbox row for a provider "payment succeeded" event.
// PaymentReference is unique, so a redelivered event lands on the same row.
type CoursePayment struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	StudentID        uint           `gorm:"not null;index" json:"student_id"`
	CourseID         uint           `gorm:"not null;index" json:"course_id"`
	PaymentReference string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"payment_reference"`
	Amount           float64        `gorm:"not null" json:"amount"`
	Currency         string         `gorm:"type:varchar(10);default:'INR'" json:"currency"`
	Status           PaymentStatus  `gorm:"type:varchar(20);default:'received';index" json:"status"`
	EnrollmentID     *uint          `gorm:"index" json:"enrollment_id"`
	Attempts         int            `gorm:"default:0" json:"attempts"`
	LastError        string         `gorm:"type:text" json:"last_error,omitempty"`
	RawEvent         datatypes.JSON `json:"-"`
	ProcessedAt      *time.Time     `json:"processed_at"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// TableName specifies the table name for CoursePayment
func (CoursePayment) TableName() string {
	return "course_payments"
}
