package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sahilchouksey/course-market-api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, role string) *model.User {
	tb.Helper()
	u := &model.User{
		Email: uuid.NewString() + "@example.com",
		Name:  role,
		Role:  role,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedCourse creates a published course; pass price 0 for a free one
func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, instructorID uint, price float64) *model.Course {
	tb.Helper()
	c := &model.Course{
		InstructorID: instructorID,
		Title:        "course",
		Slug:         "course-" + uuid.NewString(),
		Price:        price,
		Currency:     "INR",
		Status:       model.CourseStatusPublished,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedSection(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uint, order int) *model.Section {
	tb.Helper()
	s := &model.Section{
		CourseID: courseID,
		Title:    "section",
		Order:    order,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed section: %v", err)
	}
	return s
}

func SeedLesson(tb testing.TB, ctx context.Context, tx *gorm.DB, section *model.Section, order int, preview bool) *model.Lesson {
	tb.Helper()
	l := &model.Lesson{
		SectionID: section.ID,
		CourseID:  section.CourseID,
		Title:     "lesson",
		Type:      model.LessonTypeVideo,
		Duration:  10,
		IsPreview: preview,
		Order:     order,
		Content:   "body",
		MediaKey:  "media/" + uuid.NewString() + ".mp4",
		Resources: datatypes.JSONSlice[string]{"notes.pdf"},
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	return l
}

// SeedEnrollment writes an enrollment row directly, bypassing the engine
func SeedEnrollment(tb testing.TB, ctx context.Context, tx *gorm.DB, studentID, courseID uint, completed ...uint) *model.Enrollment {
	tb.Helper()
	sid := studentID
	e := &model.Enrollment{
		StudentID:        &sid,
		CourseID:         courseID,
		Status:           model.EnrollmentStatusEnrolled,
		CompletedLessons: datatypes.JSONSlice[uint](append([]uint{}, completed...)),
		EnrolledAt:       time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	return e
}
