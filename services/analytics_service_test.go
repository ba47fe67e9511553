package services

import (
	"testing"

	"github.com/sahilchouksey/course-market-api/model"
	"github.com/sahilchouksey/course-market-api/repository"
	"github.com/sahilchouksey/course-market-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseStatsIncludeDetachedStudents(t *testing.T) {
	f := newFixture(t)
	log := testutil.Logger(t)
	analytics := NewAnalyticsService(f.enrollments, f.content, log)
	users := NewUserService(repository.NewUserStore(f.db, log), f.enrollments, log)
	course, _, lessons := f.course(1000, 2)

	paying := []*model.User{f.student, testutil.SeedUser(t, f.ctx, f.db, model.RoleStudent), testutil.SeedUser(t, f.ctx, f.db, model.RoleStudent)}
	for i, u := range paying {
		_, err := f.engine.Enroll(f.ctx, EnrollRequest{StudentID: u.ID, CourseID: course.ID, AmountPaid: 1000})
		require.NoError(t, err)
		for _, lesson := range lessons[:i] {
			_, err := f.engine.MarkLessonCompleted(f.ctx, u.ID, course.ID, lesson.ID)
			require.NoError(t, err)
		}
	}

	before, err := analytics.GetCourseStats(f.ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), before.Enrollments)
	assert.Equal(t, int64(1), before.Completed)
	assert.Equal(t, float64(3000), before.Revenue)
	assert.Equal(t, 33, before.CompletionRate)
	assert.Equal(t, 50, before.AveragePercentage)
	assert.Equal(t, 3, before.StudentsCount)

	removal, err := users.RemoveUser(f.ctx, paying[2].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removal.DetachedEnrollments)

	after, err := analytics.GetCourseStats(f.ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Enrollments, after.Enrollments)
	assert.Equal(t, before.Completed, after.Completed)
	assert.Equal(t, before.Revenue, after.Revenue)

	dashboard, err := analytics.GetInstructorDashboard(f.ctx, f.instructor.ID)
	require.NoError(t, err)
	require.Len(t, dashboard.Courses, 1)
	assert.Equal(t, int64(3), dashboard.TotalEnrollments)
	assert.Equal(t, float64(3000), dashboard.TotalRevenue)
	assert.Equal(t, 50, dashboard.AveragePercentage)

	_, err = analytics.GetCourseStats(f.ctx, 9090)
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestRemoveUser(t *testing.T) {
	f := newFixture(t)
	log := testutil.Logger(t)
	users := NewUserService(repository.NewUserStore(f.db, log), f.enrollments, log)

	_, err := users.RemoveUser(f.ctx, 5555)
	assert.ErrorIs(t, err, ErrUserNotFound)

	removal, err := users.RemoveUser(f.ctx, f.student.ID)
	require.NoError(t, err)
	assert.Zero(t, removal.DetachedEnrollments)

	_, err = users.RemoveUser(f.ctx, f.student.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
