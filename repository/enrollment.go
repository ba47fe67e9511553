package repository

import (
	"context"
	"time"

	"github.com/sahilchouksey/course-market-api/model"
	"github.com/sahilchouksey/course-market-api/utils/logger"
	"gorm.io/gorm"
)

// CourseStats aggregates enrollments of one course. Rows whose student was
// detached are still counted.
type CourseStats struct {
	CourseID          uint    `json:"course_id"`
	Enrollments       int64   `json:"enrollments"`
	Completed         int64   `json:"completed"`
	Revenue           float64 `json:"revenue"`
	AveragePercentage float64 `json:"average_percentage"`
}

type EnrollmentStore interface {
	// Create fails with gorm.ErrDuplicatedKey when the (student, course) pair already exists
	Create(ctx context.Context, enrollment *model.Enrollment) error
	FindByID(ctx context.Context, id uint) (*model.Enrollment, error)
	FindByStudentAndCourse(ctx context.Context, studentID, courseID uint) (*model.Enrollment, error)
	ListByCourse(ctx context.Context, courseID uint) ([]model.Enrollment, error)
	ListByStudent(ctx context.Context, studentID uint) ([]model.Enrollment, error)
	// ConditionalUpdate writes progress fields only if the stored version still equals
	// expectedVersion. It reports whether the row was updated.
	ConditionalUpdate(ctx context.Context, enrollment *model.Enrollment, expectedVersion int) (bool, error)
	DetachStudent(ctx context.Context, studentID uint) (int64, error)
	CourseStats(ctx context.Context, courseID uint) (*CourseStats, error)
	StatsByInstructor(ctx context.Context, instructorID uint) ([]CourseStats, error)
}

type enrollmentStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentStore(db *gorm.DB, baseLog *logger.Logger) EnrollmentStore {
	return &enrollmentStore{db: db, log: baseLog.With("repo", "EnrollmentStore")}
}

func (r *enrollmentStore) Create(ctx context.Context, enrollment *model.Enrollment) error {
	if enrollment.CompletedLessons == nil {
		enrollment.CompletedLessons = []uint{}
	}
	return r.db.WithContext(ctx).Create(enrollment).Error
}

func (r *enrollmentStore) FindByID(ctx context.Context, id uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	if err := r.db.WithContext(ctx).First(&enrollment, id).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentStore) FindByStudentAndCourse(ctx context.Context, studentID, courseID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&enrollment).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentStore) ListByCourse(ctx context.Context, courseID uint) ([]model.Enrollment, error) {
	enrollments := []model.Enrollment{}
	if err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("id ASC").
		Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *enrollmentStore) ListByStudent(ctx context.Context, studentID uint) ([]model.Enrollment, error) {
	enrollments := []model.Enrollment{}
	if err := r.db.WithContext(ctx).
		Preload("Course").
		Where("student_id = ?", studentID).
		Order("enrolled_at DESC, id DESC").
		Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *enrollmentStore) ConditionalUpdate(ctx context.Context, enrollment *model.Enrollment, expectedVersion int) (bool, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("id = ? AND version = ?", enrollment.ID, expectedVersion).
		Updates(map[string]interface{}{
			"completed_lessons": enrollment.CompletedLessons,
			"percentage":        enrollment.Percentage,
			"status":            enrollment.Status,
			"completed_at":      enrollment.CompletedAt,
			"version":           expectedVersion + 1,
			"updated_at":        now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	enrollment.Version = expectedVersion + 1
	enrollment.UpdatedAt = now
	return true, nil
}

// DetachStudent nulls the student reference on every enrollment of a removed account
func (r *enrollmentStore) DetachStudent(ctx context.Context, studentID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("student_id = ?", studentID).
		UpdateColumn("student_id", gorm.Expr("NULL"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		r.log.Info("Detached student from enrollments", "student_id", studentID, "rows", res.RowsAffected)
	}
	return res.RowsAffected, nil
}

const statsColumns = `enrollments.course_id AS course_id,
	COUNT(*) AS enrollments,
	COALESCE(SUM(CASE WHEN enrollments.percentage >= 100 THEN 1 ELSE 0 END), 0) AS completed,
	COALESCE(SUM(enrollments.amount_paid), 0) AS revenue,
	COALESCE(AVG(enrollments.percentage), 0) AS average_percentage`

func (r *enrollmentStore) CourseStats(ctx context.Context, courseID uint) (*CourseStats, error) {
	rows := []CourseStats{}
	if err := r.db.WithContext(ctx).
		Table("enrollments").
		Select(statsColumns).
		Where("enrollments.course_id = ?", courseID).
		Group("enrollments.course_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &CourseStats{CourseID: courseID}, nil
	}
	return &rows[0], nil
}

func (r *enrollmentStore) StatsByInstructor(ctx context.Context, instructorID uint) ([]CourseStats, error) {
	rows := []CourseStats{}
	if err := r.db.WithContext(ctx).
		Table("enrollments").
		Select(statsColumns).
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Where("courses.instructor_id = ?", instructorID).
		Group("enrollments.course_id").
		Order("enrollments.course_id ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
