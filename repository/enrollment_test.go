package repository

import (
	"context"
	"testing"
	"time"

	"github.com/sahilchouksey/course-market-api/model"
	"github.com/sahilchouksey/course-market-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newEnrollment(studentID, courseID uint, amount float64) *model.Enrollment {
	sid := studentID
	return &model.Enrollment{
		StudentID:  &sid,
		CourseID:   courseID,
		Status:     model.EnrollmentStatusEnrolled,
		AmountPaid: amount,
		EnrolledAt: time.Now().UTC(),
	}
}

func TestEnrollmentStoreUniquePair(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	store := NewEnrollmentStore(db, testutil.Logger(t))

	instructor := testutil.SeedUser(t, ctx, db, model.RoleInstructor)
	student := testutil.SeedUser(t, ctx, db, model.RoleStudent)
	course := testutil.SeedCourse(t, ctx, db, instructor.ID, 0)

	first := newEnrollment(student.ID, course.ID, 0)
	require.NoError(t, store.Create(ctx, first))
	assert.NotZero(t, first.ID)
	assert.NotNil(t, first.CompletedLessons)

	err := store.Create(ctx, newEnrollment(student.ID, course.ID, 0))
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	found, err := store.FindByStudentAndCourse(ctx, student.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
	assert.Empty(t, found.CompletedLessons)

	_, err = store.FindByStudentAndCourse(ctx, student.ID+100, course.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestEnrollmentStoreConditionalUpdate(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	store := NewEnrollmentStore(db, testutil.Logger(t))

	instructor := testutil.SeedUser(t, ctx, db, model.RoleInstructor)
	student := testutil.SeedUser(t, ctx, db, model.RoleStudent)
	course := testutil.SeedCourse(t, ctx, db, instructor.ID, 0)

	e := newEnrollment(student.ID, course.ID, 0)
	require.NoError(t, store.Create(ctx, e))

	now := time.Now().UTC()
	e.CompletedLessons = []uint{7, 3}
	e.Percentage = 100
	e.Status = model.EnrollmentStatusCompleted
	e.CompletedAt = &now

	ok, err := store.ConditionalUpdate(ctx, e, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, e.Version)

	// a writer still holding version 0 loses
	stale := *e
	stale.CompletedLessons = []uint{7}
	ok, err = store.ConditionalUpdate(ctx, &stale, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := store.FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{7, 3}, []uint(stored.CompletedLessons), "completion order is preserved")
	assert.Equal(t, 100, stored.Percentage)
	assert.Equal(t, model.EnrollmentStatusCompleted, stored.Status)
	assert.NotNil(t, stored.CompletedAt)
	assert.Equal(t, 1, stored.Version)

	// clearing completed_at writes NULL
	stored.CompletedAt = nil
	stored.Status = model.EnrollmentStatusEnrolled
	stored.Percentage = 50
	ok, err = store.ConditionalUpdate(ctx, stored, 1)
	require.NoError(t, err)
	require.True(t, ok)

	again, err := store.FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Nil(t, again.CompletedAt)
	assert.Equal(t, 2, again.Version)
}

func TestEnrollmentStoreDetachKeepsAggregates(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	store := NewEnrollmentStore(db, testutil.Logger(t))

	instructor := testutil.SeedUser(t, ctx, db, model.RoleInstructor)
	alice := testutil.SeedUser(t, ctx, db, model.RoleStudent)
	bob := testutil.SeedUser(t, ctx, db, model.RoleStudent)
	paid := testutil.SeedCourse(t, ctx, db, instructor.ID, 100)
	free := testutil.SeedCourse(t, ctx, db, instructor.ID, 0)

	a := newEnrollment(alice.ID, paid.ID, 100)
	require.NoError(t, store.Create(ctx, a))
	b := newEnrollment(bob.ID, paid.ID, 80)
	require.NoError(t, store.Create(ctx, b))
	require.NoError(t, store.Create(ctx, newEnrollment(alice.ID, free.ID, 0)))

	b.Percentage = 100
	b.Status = model.EnrollmentStatusCompleted
	now := time.Now().UTC()
	b.CompletedAt = &now
	ok, err := store.ConditionalUpdate(ctx, b, 0)
	require.NoError(t, err)
	require.True(t, ok)

	rows, err := store.DetachStudent(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rows)

	detached, err := store.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, detached.StudentID)

	mine, err := store.ListByStudent(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)

	stats, err := store.CourseStats(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Enrollments)
	assert.Equal(t, int64(1), stats.Completed)
	assert.InDelta(t, 180.0, stats.Revenue, 0.001)
	assert.InDelta(t, 50.0, stats.AveragePercentage, 0.001)

	byInstructor, err := store.StatsByInstructor(ctx, instructor.ID)
	require.NoError(t, err)
	require.Len(t, byInstructor, 2)
	assert.Equal(t, paid.ID, byInstructor[0].CourseID)
	assert.Equal(t, free.ID, byInstructor[1].CourseID)
	assert.Equal(t, int64(1), byInstructor[1].Enrollments)

	empty, err := store.CourseStats(ctx, 424242)
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.Enrollments)
}
