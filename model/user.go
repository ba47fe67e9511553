package model

import (
	"time"

	"gorm.io/gorm"
)

// Role names carried in JWT claims and on User.Role
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// User represents a registered account. Credentials live with the identity provider;
// this table only holds what the marketplace needs to authorize requests.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	Name         string         `gorm:"not null" json:"name"`
	Role         string         `gorm:"type:varchar(20);default:'student'" json:"role"` // student, instructor, admin
	TokenVersion int            `gorm:"default:0" json:"-"`                             // Increment to invalidate all user tokens

	// Relationships
	Enrollments []Enrollment `gorm:"foreignKey:StudentID;constraint:OnDelete:SET NULL" json:"-"`
	Courses     []Course     `gorm:"foreignKey:InstructorID" json:"-"`
}

// IsAdmin reports whether the user can moderate the whole platform
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
