package repository

import (
	"context"

	"github.com/sahilchouksey/course-market-api/model"
	"github.com/sahilchouksey/course-market-api/utils/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewStore interface {
	// Upsert keeps one review per (student, course); a resubmission replaces rating and comment
	Upsert(ctx context.Context, review *model.Review) error
	Aggregate(ctx context.Context, courseID uint) (average float64, count int, err error)
	ListByCourse(ctx context.Context, courseID uint, limit, offset int) ([]model.Review, error)
}

type reviewStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewStore(db *gorm.DB, baseLog *logger.Logger) ReviewStore {
	return &reviewStore{db: db, log: baseLog.With("repo", "ReviewStore")}
}

func (r *reviewStore) Upsert(ctx context.Context, review *model.Review) error {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "course_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "comment", "updated_at"}),
		}).
		Create(review).Error; err != nil {
		return err
	}
	// the conflict path does not reliably hand back the existing row
	var stored model.Review
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", review.StudentID, review.CourseID).
		First(&stored).Error; err != nil {
		return err
	}
	*review = stored
	return nil
}

func (r *reviewStore) Aggregate(ctx context.Context, courseID uint) (float64, int, error) {
	var row struct {
		Average     float64
		ReviewCount int
	}
	if err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS review_count").
		Where("course_id = ?", courseID).
		Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return row.Average, row.ReviewCount, nil
}

func (r *reviewStore) ListByCourse(ctx context.Context, courseID uint, limit, offset int) ([]model.Review, error) {
	reviews := []model.Review{}
	q := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at DESC, id DESC").
		Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}
