package repository

import (
	"context"

	"github.com/sahilchouksey/course-market-api/model"
	"github.com/sahilchouksey/course-market-api/utils/logger"
	"gorm.io/gorm"
)

// ContentStore owns the Course/Section/Lesson structure. The enrollment core only
// reads it, apart from the denormalized counters written back after enrollment.
type ContentStore interface {
	CourseExists(ctx context.Context, courseID uint) (bool, error)
	GetCourse(ctx context.Context, courseID uint) (*model.Course, error)
	IsCourseOwnedBy(ctx context.Context, courseID, userID uint) (bool, error)
	TotalLessonsInCourse(ctx context.Context, courseID uint) (int, error)
	LessonIDsInCourse(ctx context.Context, courseID uint) ([]uint, error)
	GetLesson(ctx context.Context, courseID, lessonID uint) (*model.Lesson, error)
	GetSection(ctx context.Context, courseID, sectionID uint) (*model.Section, error)
	Curriculum(ctx context.Context, courseID uint) ([]model.Section, error)
	CreateLesson(ctx context.Context, lesson *model.Lesson) error
	DeleteLesson(ctx context.Context, courseID, lessonID uint) (bool, error)
	IncrementStudentsCount(ctx context.Context, courseID uint, delta int) error
	MarkProgressDirty(ctx context.Context, courseID uint, dirty bool) error
	MarkAllProgressDirty(ctx context.Context) (int64, error)
	DirtyCourseIDs(ctx context.Context, limit int) ([]uint, error)
	UpdateRating(ctx context.Context, courseID uint, rating float64, count int) error
}

type contentStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentStore(db *gorm.DB, baseLog *logger.Logger) ContentStore {
	return &contentStore{db: db, log: baseLog.With("repo", "ContentStore")}
}

func (r *contentStore) CourseExists(ctx context.Context, courseID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("id = ?", courseID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *contentStore) GetCourse(ctx context.Context, courseID uint) (*model.Course, error) {
	var course model.Course
	if err := r.db.WithContext(ctx).First(&course, courseID).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *contentStore) IsCourseOwnedBy(ctx context.Context, courseID, userID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("id = ? AND instructor_id = ?", courseID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *contentStore) TotalLessonsInCourse(ctx context.Context, courseID uint) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.Lesson{}).
		Where("course_id = ?", courseID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *contentStore) LessonIDsInCourse(ctx context.Context, courseID uint) ([]uint, error) {
	ids := []uint{}
	if err := r.db.WithContext(ctx).
		Model(&model.Lesson{}).
		Where("course_id = ?", courseID).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *contentStore) GetLesson(ctx context.Context, courseID, lessonID uint) (*model.Lesson, error) {
	var lesson model.Lesson
	if err := r.db.WithContext(ctx).
		Where("id = ? AND course_id = ?", lessonID, courseID).
		First(&lesson).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *contentStore) GetSection(ctx context.Context, courseID, sectionID uint) (*model.Section, error) {
	var section model.Section
	if err := r.db.WithContext(ctx).
		Where("id = ? AND course_id = ?", sectionID, courseID).
		First(&section).Error; err != nil {
		return nil, err
	}
	return &section, nil
}

// Curriculum returns sections and their lessons in display order; equal orders fall back to insertion order
func (r *contentStore) Curriculum(ctx context.Context, courseID uint) ([]model.Section, error) {
	sections := []model.Section{}
	if err := r.db.WithContext(ctx).
		Preload("Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Where("course_id = ?", courseID).
		Order("sort_order ASC, id ASC").
		Find(&sections).Error; err != nil {
		return nil, err
	}
	return sections, nil
}

func (r *contentStore) CreateLesson(ctx context.Context, lesson *model.Lesson) error {
	return r.db.WithContext(ctx).Create(lesson).Error
}

func (r *contentStore) DeleteLesson(ctx context.Context, courseID, lessonID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND course_id = ?", lessonID, courseID).
		Delete(&model.Lesson{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *contentStore) IncrementStudentsCount(ctx context.Context, courseID uint, delta int) error {
	return r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("id = ?", courseID).
		UpdateColumn("students_count", gorm.Expr("students_count + ?", delta)).Error
}

func (r *contentStore) MarkProgressDirty(ctx context.Context, courseID uint, dirty bool) error {
	return r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("id = ?", courseID).
		UpdateColumn("progress_dirty", dirty).Error
}

// MarkAllProgressDirty flags every course for the sweep and returns how many changed
func (r *contentStore) MarkAllProgressDirty(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("progress_dirty = ?", false).
		UpdateColumn("progress_dirty", true)
	return res.RowsAffected, res.Error
}

func (r *contentStore) DirtyCourseIDs(ctx context.Context, limit int) ([]uint, error) {
	ids := []uint{}
	q := r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("progress_dirty = ?", true).
		Order("updated_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *contentStore) UpdateRating(ctx context.Context, courseID uint, rating float64, count int) error {
	return r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("id = ?", courseID).
		UpdateColumns(map[string]interface{}{
			"rating":       rating,
			"rating_count": count,
		}).Error
}
