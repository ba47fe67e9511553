package services

import (
	"context"

	"github.com/sahilchouksey/course-market-api/repository"
	"github.com/sahilchouksey/course-market-api/utils/logger"
)

// AnalyticsService handles enrollment reporting for instructors and admins
type AnalyticsService struct {
	enrollments repository.EnrollmentStore
	content     repository.ContentStore
	log         *logger.Logger
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(enrollments repository.EnrollmentStore, content repository.ContentStore, baseLog *logger.Logger) *AnalyticsService {
	return &AnalyticsService{
		enrollments: enrollments,
		content:     content,
		log:         baseLog.With("service", "AnalyticsService"),
	}
}

// CourseStats represents enrollment statistics of one course.
// An enrollment counts as completed when its percentage reached 100.
type CourseStats struct {
	CourseID          uint    `json:"course_id"`
	Title             string  `json:"title,omitempty"`
	StudentsCount     int     `json:"students_count"`
	Enrollments       int64   `json:"enrollments"`
	Completed         int64   `json:"completed"`
	CompletionRate    int     `json:"completion_rate"`
	AveragePercentage int     `json:"average_percentage"`
	Revenue           float64 `json:"revenue"`
	Rating            float64 `json:"rating"`
	RatingCount       int     `json:"rating_count"`
}

// InstructorDashboard rolls up every course of one instructor
type InstructorDashboard struct {
	InstructorID      uint          `json:"instructor_id"`
	Courses           []CourseStats `json:"courses"`
	TotalEnrollments  int64         `json:"total_enrollments"`
	TotalCompleted    int64         `json:"total_completed"`
	TotalRevenue      float64       `json:"total_revenue"`
	CompletionRate    int           `json:"completion_rate"`
	AveragePercentage int           `json:"average_percentage"`
}

// GetCourseStats retrieves enrollment statistics of one course
func (s *AnalyticsService) GetCourseStats(ctx context.Context, courseID uint) (*CourseStats, error) {
	course, err := s.content.GetCourse(ctx, courseID)
	if err != nil {
		return nil, notFoundOr(err, ErrCourseNotFound, "load course")
	}

	raw, err := s.enrollments.CourseStats(ctx, courseID)
	if err != nil {
		return nil, transient("aggregate enrollments", err)
	}

	stats := toCourseStats(raw)
	stats.Title = course.Title
	stats.StudentsCount = course.StudentsCount
	stats.Rating = course.Rating
	stats.RatingCount = course.RatingCount
	return &stats, nil
}

// GetInstructorDashboard retrieves per-course and total statistics for an instructor
func (s *AnalyticsService) GetInstructorDashboard(ctx context.Context, instructorID uint) (*InstructorDashboard, error) {
	rows, err := s.enrollments.StatsByInstructor(ctx, instructorID)
	if err != nil {
		return nil, transient("aggregate instructor enrollments", err)
	}

	dashboard := &InstructorDashboard{
		InstructorID: instructorID,
		Courses:      make([]CourseStats, 0, len(rows)),
	}
	var percentageSum float64
	for _, row := range rows {
		dashboard.Courses = append(dashboard.Courses, toCourseStats(&row))
		dashboard.TotalEnrollments += row.Enrollments
		dashboard.TotalCompleted += row.Completed
		dashboard.TotalRevenue += row.Revenue
		percentageSum += row.AveragePercentage * float64(row.Enrollments)
	}
	if dashboard.TotalEnrollments > 0 {
		dashboard.CompletionRate = Percentage(int(dashboard.TotalCompleted), int(dashboard.TotalEnrollments))
		dashboard.AveragePercentage = roundHalfUp(percentageSum / float64(dashboard.TotalEnrollments))
	}
	return dashboard, nil
}

func toCourseStats(raw *repository.CourseStats) CourseStats {
	stats := CourseStats{
		CourseID:          raw.CourseID,
		Enrollments:       raw.Enrollments,
		Completed:         raw.Completed,
		Revenue:           raw.Revenue,
		AveragePercentage: roundHalfUp(raw.AveragePercentage),
	}
	if raw.Enrollments > 0 {
		stats.CompletionRate = Percentage(int(raw.Completed), int(raw.Enrollments))
	}
	return stats
}

func roundHalfUp(v float64) int {
	if v <= 0 {
		return 0
	}
	return int(v + 0.5)
}
