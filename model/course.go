package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CourseStatus is the publication state of a course
type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "draft"
	CourseStatusPublished CourseStatus = "published"
	CourseStatusArchived  CourseStatus = "archived"
)

// LessonType describes how a lesson body is delivered
type LessonType string

const (
	LessonTypeVideo   LessonType = "video"
	LessonTypeArticle LessonType = "article"
	LessonTypeQuiz    LessonType = "quiz"
)

// Course is an instructor-published offering made of ordered sections
type Course struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	InstructorID  uint           `gorm:"not null;index" json:"instructor_id"`
	Title         string         `gorm:"not null" json:"title"`
	Slug          string         `gorm:"uniqueIndex;not null" json:"slug"`
	Description   string         `gorm:"type:text" json:"description"`
	Price         float64        `gorm:"not null;default:0" json:"price"` // 0 = free
	Currency      string         `gorm:"type:varchar(10);default:'INR'" json:"currency"`
	Status        CourseStatus   `gorm:"type:varchar(20);default:'draft'" json:"status"`
	StudentsCount int            `gorm:"default:0" json:"students_count"`
	Rating        float64        `gorm:"default:0" json:"rating"`       // owned by the review write path
	RatingCount   int            `gorm:"default:0" json:"rating_count"` // owned by the review write path
	ProgressDirty bool           `gorm:"default:false;index" json:"-"`  // lesson set changed, enrollments not yet recalculated

	// Relationships
	Instructor User      `gorm:"foreignKey:InstructorID" json:"instructor,omitempty"`
	Sections   []Section `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"sections,omitempty"`
}

// IsFree reports whether the course can be joined without a payment
func (c *Course) IsFree() bool {
	return c.Price <= 0
}

// Section groups lessons inside a course. Order is not unique; ties keep insertion order.
type Section struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	CourseID  uint           `gorm:"not null;index" json:"course_id"`
	Title     string         `gorm:"not null" json:"title"`
	Order     int            `gorm:"column:sort_order;default:0" json:"order"`

	// Relationships
	Lessons []Lesson `gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE" json:"lessons,omitempty"`
}

// Lesson is the unit of completion. CourseID is denormalized from the section.
type Lesson struct {
	ID        uint                        `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
	DeletedAt gorm.DeletedAt              `gorm:"index" json:"-"`
	SectionID uint                        `gorm:"not null;index" json:"section_id"`
	CourseID  uint                        `gorm:"not null;index" json:"course_id"`
	Title     string                      `gorm:"not null" json:"title"`
	Type      LessonType                  `gorm:"type:varchar(20);default:'video'" json:"type"`
	Duration  int                         `gorm:"not null" json:"duration"` // minutes
	IsPreview bool                        `gorm:"default:false" json:"is_preview"`
	Order     int                         `gorm:"column:sort_order;default:0" json:"order"`
	Content   string                      `gorm:"type:text" json:"content,omitempty"`
	MediaKey  string                      `gorm:"type:varchar(500)" json:"-"` // opaque blob-storage key
	Resources datatypes.JSONSlice[string] `json:"resources,omitempty"`
}
