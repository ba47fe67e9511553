package services

import (
	"testing"
	"time"

	"github.com/sahilchouksey/course-market-api/model"
	"github.com/sahilchouksey/course-market-api/testutil"
	"github.com/sahilchouksey/course-market-api/utils/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemovingLessonRecomputesProgress(t *testing.T) {
	f := newFixture(t)
	course, _, lessons := f.course(0, 3)

	full := testutil.SeedEnrollment(t, f.ctx, f.db, f.student.ID, course.ID, lessons[0].ID, lessons[1].ID, lessons[2].ID)
	other := testutil.SeedUser(t, f.ctx, f.db, model.RoleStudent)
	partial := testutil.SeedEnrollment(t, f.ctx, f.db, other.ID, course.ID, lessons[0].ID, lessons[2].ID)
	third := testutil.SeedUser(t, f.ctx, f.db, model.RoleStudent)
	behind := testutil.SeedEnrollment(t, f.ctx, f.db, third.ID, course.ID, lessons[2].ID)

	change, err := f.curriculum.RemoveLesson(f.ctx, f.principal(f.instructor), course.ID, lessons[2].ID)
	require.NoError(t, err)
	require.NotNil(t, change.Recalculation)
	assert.Equal(t, 3, change.Recalculation.Total)
	assert.Zero(t, change.Recalculation.Failed)

	// {L1,L2,L3} -> {L1,L2}: 2 of 2
	e := f.reload(full.ID)
	assert.ElementsMatch(t, []uint{lessons[0].ID, lessons[1].ID}, []uint(e.CompletedLessons))
	assert.Equal(t, 100, e.Percentage)
	assertCoupled(t, e)

	// {L1,L3} -> {L1}: 1 of 2
	e = f.reload(partial.ID)
	assert.Equal(t, []uint{lessons[0].ID}, []uint(e.CompletedLessons))
	assert.Equal(t, 50, e.Percentage)
	assertCoupled(t, e)

	// {L3} -> {}: 0 of 2
	e = f.reload(behind.ID)
	assert.Empty(t, e.CompletedLessons)
	assert.Equal(t, 0, e.Percentage)
	assertCoupled(t, e)

	course2, err := f.content.GetCourse(f.ctx, course.ID)
	require.NoError(t, err)
	assert.False(t, course2.ProgressDirty)
}

func TestRemovingLessonCanCompleteCourse(t *testing.T) {
	f := newFixture(t)
	course, _, lessons := f.course(0, 3)
	seeded := testutil.SeedEnrollment(t, f.ctx, f.db, f.student.ID, course.ID, lessons[0].ID, lessons[2].ID)
	require.NoError(t, f.db.Model(seeded).Update("percentage", 67).Error)

	before := time.Now().UTC().Add(-time.Second)
	_, err := f.curriculum.RemoveLesson(f.ctx, f.principal(f.admin), course.ID, lessons[1].ID)
	require.NoError(t, err)

	e := f.reload(seeded.ID)
	assert.Equal(t, 100, e.Percentage)
	assert.Equal(t, model.EnrollmentStatusCompleted, e.Status)
	require.NotNil(t, e.CompletedAt)
	assert.True(t, e.CompletedAt.After(before))
}

func TestRecalculationIsIdempotent(t *testing.T) {
	f := newFixture(t)
	course, _, lessons := f.course(0, 4)
	testutil.SeedEnrollment(t, f.ctx, f.db, f.student.ID, course.ID, lessons[0].ID)

	first, err := f.recalculator.RecalculateCourseProgress(f.ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Updated)

	second, err := f.recalculator.RecalculateCourseProgress(f.ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 1, second.Unchanged)
	assert.True(t, second.Complete())
}

func TestRecalculationDefersWhileLocked(t *testing.T) {
	f := newFixture(t)
	course, _, lessons := f.course(0, 2)
	seeded := testutil.SeedEnrollment(t, f.ctx, f.db, f.student.ID, course.ID, lessons[0].ID)

	release, ok, err := f.locker.TryLock(f.ctx, cache.CourseProgressLockKey(course.ID), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	report, err := f.recalculator.RecalculateCourseProgress(f.ctx, course.ID)
	require.NoError(t, err)
	assert.True(t, report.Deferred)
	assert.False(t, report.Complete())
	assert.Equal(t, 0, f.reload(seeded.ID).Percentage)

	dirty, err := f.content.DirtyCourseIDs(f.ctx, 10)
	require.NoError(t, err)
	assert.Contains(t, dirty, course.ID)

	release()

	reports, err := f.recalculator.SweepDirtyCourses(f.ctx, 10)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].Updated)
	assert.Equal(t, 50, f.reload(seeded.ID).Percentage)

	dirty, err = f.content.DirtyCourseIDs(f.ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, dirty)
}

func TestLessonAddedDuringPassKeepsCourseDirty(t *testing.T) {
	f := newFixture(t)
	course, section, lessons := f.course(0, 2)
	seeded := testutil.SeedEnrollment(t, f.ctx, f.db, f.student.ID, course.ID, lessons[0].ID, lessons[1].ID)
	require.NoError(t, f.db.Model(seeded).Updates(map[string]interface{}{
		"percentage":   100,
		"status":       model.EnrollmentStatusCompleted,
		"completed_at": time.Now().UTC(),
	}).Error)

	store := &interleavingEnrollmentStore{EnrollmentStore: f.enrollments}
	f.wire(store)
	var nested *CurriculumChange
	store.afterList = func() {
		// lands after the running pass has read the old lesson set
		change, err := f.curriculum.AddLesson(f.ctx, f.principal(f.instructor), course.ID, section.ID,
			LessonInput{Title: "Late addition", Type: model.LessonTypeVideo, Duration: 5})
		require.NoError(t, err)
		nested = change
	}

	report, err := f.recalculator.RecalculateCourseProgress(f.ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Unchanged)
	require.NotNil(t, nested)
	require.NotNil(t, nested.Recalculation)
	assert.True(t, nested.Recalculation.Deferred)

	dirty, err := f.content.DirtyCourseIDs(f.ctx, 10)
	require.NoError(t, err)
	assert.Contains(t, dirty, course.ID)

	reports, err := f.recalculator.SweepDirtyCourses(f.ctx, 10)
	require.NoError(t, err)
	require.Len(t, reports, 1)

	e := f.reload(seeded.ID)
	assert.Equal(t, 67, e.Percentage)
	assert.Equal(t, model.EnrollmentStatusEnrolled, e.Status)
	assert.Nil(t, e.CompletedAt)

	dirty, err = f.content.DirtyCourseIDs(f.ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, dirty)
}

func TestRecalculationCountsFailuresAndStaysDirty(t *testing.T) {
	f := newFixture(t)
	course, _, lessons := f.course(0, 2)
	broken := testutil.SeedEnrollment(t, f.ctx, f.db, f.student.ID, course.ID, lessons[0].ID)
	other := testutil.SeedUser(t, f.ctx, f.db, model.RoleStudent)
	healthy := testutil.SeedEnrollment(t, f.ctx, f.db, other.ID, course.ID, lessons[1].ID)

	f.wire(&flakyEnrollmentStore{EnrollmentStore: f.enrollments, failUpdates: map[uint]bool{broken.ID: true}})

	report, err := f.recalculator.RecalculateCourseProgress(f.ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 50, f.reload(healthy.ID).Percentage)
	assert.Equal(t, 0, f.reload(broken.ID).Percentage)

	dirty, err := f.content.DirtyCourseIDs(f.ctx, 10)
	require.NoError(t, err)
	assert.Contains(t, dirty, course.ID)
}

func TestRecalculateUnknownCourse(t *testing.T) {
	f := newFixture(t)
	_, err := f.recalculator.RecalculateCourseProgress(f.ctx, 4242)
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestHandleContentChangeRecalculates(t *testing.T) {
	f := newFixture(t)
	course, section, lessons := f.course(0, 1)
	seeded := testutil.SeedEnrollment(t, f.ctx, f.db, f.student.ID, course.ID, lessons[0].ID)
	require.NoError(t, f.db.Model(seeded).Updates(map[string]interface{}{
		"percentage":   100,
		"status":       model.EnrollmentStatusCompleted,
		"completed_at": time.Now().UTC(),
	}).Error)

	// a lesson written behind the service's back, as the listener would see it
	testutil.SeedLesson(t, f.ctx, f.db, section, 2, false)
	f.recalculator.HandleContentChange(f.ctx, course.ID)

	e := f.reload(seeded.ID)
	assert.Equal(t, 50, e.Percentage)
	assertCoupled(t, e)
}

func TestHandleListenerReconnectSweepsEveryCourse(t *testing.T) {
	f := newFixture(t)
	course, section, lessons := f.course(0, 1)
	seeded := testutil.SeedEnrollment(t, f.ctx, f.db, f.student.ID, course.ID, lessons[0].ID)
	require.NoError(t, f.db.Model(seeded).Updates(map[string]interface{}{
		"percentage":   100,
		"status":       model.EnrollmentStatusCompleted,
		"completed_at": time.Now().UTC(),
	}).Error)
	untouched, _, _ := f.course(0, 1)

	// written while the listener was down; its notification never arrives
	testutil.SeedLesson(t, f.ctx, f.db, section, 2, false)

	f.recalculator.HandleListenerReconnect(f.ctx)

	e := f.reload(seeded.ID)
	assert.Equal(t, 50, e.Percentage)
	assertCoupled(t, e)

	dirty, err := f.content.DirtyCourseIDs(f.ctx, 0)
	require.NoError(t, err)
	assert.NotContains(t, dirty, course.ID)
	assert.NotContains(t, dirty, untouched.ID)
}
