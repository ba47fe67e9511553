package services

import (
	"context"
	"errors"
	"time"

	"github.com/sahilchouksey/course-market-api/model"
	"github.com/sahilchouksey/course-market-api/repository"
	"github.com/sahilchouksey/course-market-api/utils/logger"
	"gorm.io/gorm"
)

// maxUpdateAttempts bounds the compare-and-swap loop on one enrollment
const maxUpdateAttempts = 10

// EnrollOutcome tells the caller whether Enroll created a record or found one
type EnrollOutcome string

const (
	EnrollOutcomeCreated         EnrollOutcome = "created"
	EnrollOutcomeAlreadyEnrolled EnrollOutcome = "already_enrolled"
)

// EnrollRequest is the shared input of the direct and the payment enrollment paths
type EnrollRequest struct {
	StudentID        uint
	CourseID         uint
	AmountPaid       float64
	PaymentReference string
}

type EnrollResult struct {
	Enrollment *model.Enrollment
	Outcome    EnrollOutcome
}

// Created reports whether this call wrote the enrollment
func (r *EnrollResult) Created() bool {
	return r != nil && r.Outcome == EnrollOutcomeCreated
}

// ProgressView is a student's progress in one course
type ProgressView struct {
	Enrollment       *model.Enrollment `json:"enrollment"`
	TotalLessons     int               `json:"total_lessons"`
	CompletedLessons int               `json:"completed_lessons"`
}

// EnrollmentService creates enrollments and records lesson completion
type EnrollmentService struct {
	content     repository.ContentStore
	enrollments repository.EnrollmentStore
	log         *logger.Logger
	now         func() time.Time
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(content repository.ContentStore, enrollments repository.EnrollmentStore, baseLog *logger.Logger) *EnrollmentService {
	return &EnrollmentService{
		content:     content,
		enrollments: enrollments,
		log:         baseLog.With("service", "EnrollmentService"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Enroll creates the enrollment for (student, course) or reports the existing one.
// An existing enrollment is not an error here; each caller decides what it means.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*EnrollResult, error) {
	if req.StudentID == 0 || req.CourseID == 0 {
		return nil, invalid("student and course are required")
	}
	if req.AmountPaid < 0 {
		return nil, invalid("amount paid must not be negative")
	}

	course, err := s.content.GetCourse(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, transient("load course", err)
	}
	// a settled payment is honoured either way; mismatches are surfaced for reconciliation
	if course.Status != model.CourseStatusPublished || req.AmountPaid < course.Price {
		s.log.Warn("Enrollment does not match course listing",
			"course_id", course.ID,
			"student_id", req.StudentID,
			"course_status", course.Status,
			"price", course.Price,
			"amount_paid", req.AmountPaid,
			"payment_reference", req.PaymentReference,
		)
	}

	return s.create(ctx, req)
}

// EnrollFree is the direct path: published free courses only, duplicates are a conflict
func (s *EnrollmentService) EnrollFree(ctx context.Context, studentID, courseID uint) (*model.Enrollment, error) {
	if studentID == 0 || courseID == 0 {
		return nil, invalid("student and course are required")
	}

	course, err := s.content.GetCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, transient("load course", err)
	}
	if course.Status != model.CourseStatusPublished {
		return nil, ErrCourseNotFound
	}
	if !course.IsFree() {
		return nil, ErrPaymentRequired
	}

	result, err := s.create(ctx, EnrollRequest{StudentID: studentID, CourseID: courseID})
	if err != nil {
		return nil, err
	}
	if !result.Created() {
		return nil, ErrAlreadyEnrolled
	}
	return result.Enrollment, nil
}

func (s *EnrollmentService) create(ctx context.Context, req EnrollRequest) (*EnrollResult, error) {
	existing, err := s.enrollments.FindByStudentAndCourse(ctx, req.StudentID, req.CourseID)
	if err == nil {
		return &EnrollResult{Enrollment: existing, Outcome: EnrollOutcomeAlreadyEnrolled}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, transient("look up enrollment", err)
	}

	studentID := req.StudentID
	enrollment := &model.Enrollment{
		StudentID:        &studentID,
		CourseID:         req.CourseID,
		Status:           model.EnrollmentStatusEnrolled,
		CompletedLessons: []uint{},
		Percentage:       0,
		AmountPaid:       req.AmountPaid,
		EnrolledAt:       s.now(),
	}
	if req.PaymentReference != "" {
		ref := req.PaymentReference
		enrollment.PaymentReference = &ref
	}

	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, transient("create enrollment", err)
		}
		// a concurrent create won the unique index
		existing, ferr := s.enrollments.FindByStudentAndCourse(ctx, req.StudentID, req.CourseID)
		if ferr != nil {
			return nil, transient("load concurrent enrollment", ferr)
		}
		return &EnrollResult{Enrollment: existing, Outcome: EnrollOutcomeAlreadyEnrolled}, nil
	}

	// Denormalized counter; drift is acceptable, a rollback of the enrollment is not
	if err := s.content.IncrementStudentsCount(ctx, req.CourseID, 1); err != nil {
		s.log.Warn("Failed to increment students count",
			"course_id", req.CourseID,
			"enrollment_id", enrollment.ID,
			"error", err,
		)
	}

	s.log.Info("Enrollment created",
		"enrollment_id", enrollment.ID,
		"student_id", req.StudentID,
		"course_id", req.CourseID,
		"amount_paid", req.AmountPaid,
	)
	return &EnrollResult{Enrollment: enrollment, Outcome: EnrollOutcomeCreated}, nil
}

// MarkLessonCompleted appends lessonID to the student's completed set and re-derives progress.
// Repeating the call for a completed lesson returns the enrollment unchanged.
func (s *EnrollmentService) MarkLessonCompleted(ctx context.Context, studentID, courseID, lessonID uint) (*model.Enrollment, error) {
	enrollment, err := s.findEnrollment(ctx, studentID, courseID, ErrNotEnrolled)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		// re-read every attempt: the curriculum may have changed since the last lost race
		lessonIDs, err := s.content.LessonIDsInCourse(ctx, courseID)
		if err != nil {
			return nil, transient("load course lessons", err)
		}
		lessonSet := toSet(lessonIDs)
		if _, ok := lessonSet[lessonID]; !ok {
			return nil, invalid("lesson %d does not belong to course %d", lessonID, courseID)
		}
		if enrollment.HasCompleted(lessonID) {
			return enrollment, nil
		}

		next := *enrollment
		next.CompletedLessons = append(keepExisting(enrollment.CompletedLessons, lessonSet), lessonID)
		recomputeProgress(&next, len(lessonIDs), s.now())

		updated, err := s.enrollments.ConditionalUpdate(ctx, &next, enrollment.Version)
		if err != nil {
			return nil, transient("save progress", err)
		}
		if updated {
			saved := s.settle(ctx, &next, lessonSet)
			if saved.IsCompleted() && !enrollment.IsCompleted() {
				s.log.Info("Course completed", "enrollment_id", saved.ID, "course_id", courseID)
			}
			return saved, nil
		}

		// lost a race with another writer; reload and re-check
		enrollment, err = s.findEnrollment(ctx, studentID, courseID, ErrNotEnrolled)
		if err != nil {
			return nil, err
		}
	}

	s.log.Warn("Gave up writing lesson completion", "student_id", studentID, "course_id", courseID, "lesson_id", lessonID)
	return nil, ErrConcurrentUpdate
}

// settle realigns a just-written enrollment when the lesson set moved under the write.
// A recalculation that found nothing to change does not bump the version, so the
// write above can land on a stale lesson set.
func (s *EnrollmentService) settle(ctx context.Context, written *model.Enrollment, used map[uint]struct{}) *model.Enrollment {
	lessonIDs, err := s.content.LessonIDsInCourse(ctx, written.CourseID)
	if err == nil && sameSet(lessonIDs, used) {
		return written
	}
	if err == nil {
		var aligned *model.Enrollment
		aligned, _, err = realign(ctx, s.enrollments, written, toSet(lessonIDs), len(lessonIDs), s.now())
		if err == nil {
			return aligned
		}
	}

	s.log.Warn("Could not realign progress after curriculum change", "enrollment_id", written.ID, "course_id", written.CourseID, "error", err)
	if err := s.content.MarkProgressDirty(ctx, written.CourseID, true); err != nil {
		s.log.Error("Failed to flag course for sweep", "course_id", written.CourseID, "error", err)
	}
	return written
}

// GetProgress returns the enrollment with fresh lesson totals
func (s *EnrollmentService) GetProgress(ctx context.Context, studentID, courseID uint) (*ProgressView, error) {
	enrollment, err := s.findEnrollment(ctx, studentID, courseID, ErrEnrollmentNotFound)
	if err != nil {
		return nil, err
	}
	total, err := s.content.TotalLessonsInCourse(ctx, courseID)
	if err != nil {
		return nil, transient("count lessons", err)
	}
	return &ProgressView{
		Enrollment:       enrollment,
		TotalLessons:     total,
		CompletedLessons: len(enrollment.CompletedLessons),
	}, nil
}

// ListStudentEnrollments returns every enrollment of the student, newest first
func (s *EnrollmentService) ListStudentEnrollments(ctx context.Context, studentID uint) ([]model.Enrollment, error) {
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, transient("list enrollments", err)
	}
	return enrollments, nil
}

func (s *EnrollmentService) findEnrollment(ctx context.Context, studentID, courseID uint, missing error) (*model.Enrollment, error) {
	enrollment, err := s.enrollments.FindByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, missing
		}
		return nil, transient("load enrollment", err)
	}
	return enrollment, nil
}
