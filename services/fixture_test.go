package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sahilchouksey/course-market-api/model"
	"github.com/sahilchouksey/course-market-api/repository"
	"github.com/sahilchouksey/course-market-api/testutil"
	"github.com/sahilchouksey/course-market-api/utils/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var errStorageDown = errors.New("connection reset by peer")

type fixture struct {
	t   *testing.T
	db  *gorm.DB
	ctx context.Context

	content      repository.ContentStore
	enrollments  repository.EnrollmentStore
	payments     repository.PaymentStore
	locker       *cache.LocalLocker
	signer       *fakeSigner
	engine       *EnrollmentService
	access       *AccessControl
	recalculator *ProgressRecalculator
	curriculum   *CurriculumService
	paymentSvc   *PaymentService

	instructor *model.User
	student    *model.User
	admin      *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	f := &fixture{
		t:           t,
		db:          db,
		ctx:         ctx,
		content:     repository.NewContentStore(db, log),
		enrollments: repository.NewEnrollmentStore(db, log),
		payments:    repository.NewPaymentStore(db, log),
		locker:      cache.NewLocalLocker(),
		signer:      &fakeSigner{},
	}
	f.wire(f.enrollments)

	f.instructor = testutil.SeedUser(t, ctx, db, model.RoleInstructor)
	f.student = testutil.SeedUser(t, ctx, db, model.RoleStudent)
	f.admin = testutil.SeedUser(t, ctx, db, model.RoleAdmin)
	return f
}

// wire (re)builds the services on top of the given enrollment store
func (f *fixture) wire(enrollments repository.EnrollmentStore) {
	log := testutil.Logger(f.t)
	f.engine = NewEnrollmentService(f.content, enrollments, log)
	f.access = NewAccessControl(f.content, enrollments, f.signer, 5*time.Minute, log)
	f.recalculator = NewProgressRecalculator(f.content, enrollments, f.locker, 4, log)
	f.curriculum = NewCurriculumService(f.content, f.access, f.recalculator, log)
	f.paymentSvc = NewPaymentService(f.payments, f.engine, log)
}

// course creates a published course with one section and n non-preview lessons
func (f *fixture) course(price float64, n int) (*model.Course, *model.Section, []*model.Lesson) {
	f.t.Helper()
	course := testutil.SeedCourse(f.t, f.ctx, f.db, f.instructor.ID, price)
	section := testutil.SeedSection(f.t, f.ctx, f.db, course.ID, 1)
	lessons := make([]*model.Lesson, 0, n)
	for i := 0; i < n; i++ {
		lessons = append(lessons, testutil.SeedLesson(f.t, f.ctx, f.db, section, i+1, false))
	}
	return course, section, lessons
}

func (f *fixture) reload(id uint) *model.Enrollment {
	f.t.Helper()
	e, err := f.enrollments.FindByID(f.ctx, id)
	require.NoError(f.t, err)
	return e
}

func (f *fixture) countEnrollments(studentID, courseID uint) int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Model(&model.Enrollment{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Count(&n).Error)
	return n
}

func (f *fixture) studentsCount(courseID uint) int {
	f.t.Helper()
	c, err := f.content.GetCourse(f.ctx, courseID)
	require.NoError(f.t, err)
	return c.StudentsCount
}

func (f *fixture) principal(u *model.User) *Principal {
	return &Principal{ID: u.ID, Role: u.Role}
}

// assertCoupled checks that status and completed_at agree with the percentage
func assertCoupled(t *testing.T, e *model.Enrollment) {
	t.Helper()
	if e.Percentage >= 100 {
		assert.Equal(t, model.EnrollmentStatusCompleted, e.Status)
		assert.NotNil(t, e.CompletedAt)
	} else {
		assert.Equal(t, model.EnrollmentStatusEnrolled, e.Status)
		assert.Nil(t, e.CompletedAt)
	}
}

type fakeSigner struct {
	err   error
	calls int32
}

func (s *fakeSigner) SignedURL(key string, ttl time.Duration) (string, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return "", s.err
	}
	return "https://media.test/" + key + "?ttl=" + ttl.String(), nil
}

// flakyEnrollmentStore injects storage failures into an otherwise real store
type flakyEnrollmentStore struct {
	repository.EnrollmentStore
	failCreates int32
	failUpdates map[uint]bool
}

func (s *flakyEnrollmentStore) Create(ctx context.Context, e *model.Enrollment) error {
	if atomic.AddInt32(&s.failCreates, -1) >= 0 {
		return errStorageDown
	}
	return s.EnrollmentStore.Create(ctx, e)
}

func (s *flakyEnrollmentStore) ConditionalUpdate(ctx context.Context, e *model.Enrollment, expectedVersion int) (bool, error) {
	if s.failUpdates[e.ID] {
		return false, errStorageDown
	}
	return s.EnrollmentStore.ConditionalUpdate(ctx, e, expectedVersion)
}

// interleavingEnrollmentStore runs a one-shot callback in the middle of a store call,
// standing in for a concurrent writer landing at exactly that point
type interleavingEnrollmentStore struct {
	repository.EnrollmentStore
	afterList    func()
	beforeUpdate func()
	listDone     atomic.Bool
	updateDone   atomic.Bool
}

func (s *interleavingEnrollmentStore) ListByCourse(ctx context.Context, courseID uint) ([]model.Enrollment, error) {
	result, err := s.EnrollmentStore.ListByCourse(ctx, courseID)
	if s.afterList != nil && s.listDone.CompareAndSwap(false, true) {
		s.afterList()
	}
	return result, err
}

func (s *interleavingEnrollmentStore) ConditionalUpdate(ctx context.Context, e *model.Enrollment, expectedVersion int) (bool, error) {
	if s.beforeUpdate != nil && s.updateDone.CompareAndSwap(false, true) {
		s.beforeUpdate()
	}
	return s.EnrollmentStore.ConditionalUpdate(ctx, e, expectedVersion)
}
