package services

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/sahilchouksey/course-market-api/model"
	"github.com/sahilchouksey/course-market-api/repository"
	"github.com/sahilchouksey/course-market-api/utils/logger"
	"gorm.io/gorm"
)

// ReviewService lets enrolled students rate a course and keeps the course's
// rating aggregate current as an explicit step after each write.
type ReviewService struct {
	reviews     repository.ReviewStore
	enrollments repository.EnrollmentStore
	content     repository.ContentStore
	log         *logger.Logger
}

func NewReviewService(reviews repository.ReviewStore, enrollments repository.EnrollmentStore, content repository.ContentStore, baseLog *logger.Logger) *ReviewService {
	return &ReviewService{
		reviews:     reviews,
		enrollments: enrollments,
		content:     content,
		log:         baseLog.With("service", "ReviewService"),
	}
}

func (s *ReviewService) SubmitReview(ctx context.Context, studentID, courseID uint, rating int, comment string) (*model.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, invalid("rating must be between 1 and 5")
	}

	if _, err := s.enrollments.FindByStudentAndCourse(ctx, studentID, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotEnrolled
		}
		return nil, transient("check enrollment", err)
	}

	review := &model.Review{
		StudentID: studentID,
		CourseID:  courseID,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
	}
	if err := s.reviews.Upsert(ctx, review); err != nil {
		return nil, transient("save review", err)
	}

	if err := s.RefreshCourseRating(ctx, courseID); err != nil {
		// the review is stored; the aggregate catches up on the next write
		s.log.Warn("Failed to refresh course rating", "course_id", courseID, "error", err)
	}
	return review, nil
}

// RefreshCourseRating recomputes Course.Rating (one decimal) and Course.RatingCount
func (s *ReviewService) RefreshCourseRating(ctx context.Context, courseID uint) error {
	avg, count, err := s.reviews.Aggregate(ctx, courseID)
	if err != nil {
		return transient("aggregate reviews", err)
	}
	rounded := math.Round(avg*10) / 10
	if err := s.content.UpdateRating(ctx, courseID, rounded, count); err != nil {
		return transient("update course rating", err)
	}
	return nil
}

func (s *ReviewService) ListReviews(ctx context.Context, courseID uint, limit, offset int) ([]model.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	reviews, err := s.reviews.ListByCourse(ctx, courseID, limit, offset)
	if err != nil {
		return nil, transient("list reviews", err)
	}
	return reviews, nil
}
