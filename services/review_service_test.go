package services

import (
	"testing"

	"github.com/sahilchouksey/course-market-api/model"
	"github.com/sahilchouksey/course-market-api/repository"
	"github.com/sahilchouksey/course-market-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitReview(t *testing.T) {
	f := newFixture(t)
	reviews := NewReviewService(repository.NewReviewStore(f.db, testutil.Logger(t)), f.enrollments, f.content, testutil.Logger(t))
	course, _, _ := f.course(0, 1)

	_, err := reviews.SubmitReview(f.ctx, f.student.ID, course.ID, 4, "good")
	assert.ErrorIs(t, err, ErrNotEnrolled)

	testutil.SeedEnrollment(t, f.ctx, f.db, f.student.ID, course.ID)
	_, err = reviews.SubmitReview(f.ctx, f.student.ID, course.ID, 6, "")
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = reviews.SubmitReview(f.ctx, f.student.ID, course.ID, 4, " good ")
	require.NoError(t, err)

	other := testutil.SeedUser(t, f.ctx, f.db, model.RoleStudent)
	testutil.SeedEnrollment(t, f.ctx, f.db, other.ID, course.ID)
	_, err = reviews.SubmitReview(f.ctx, other.ID, course.ID, 5, "")
	require.NoError(t, err)

	// resubmitting replaces the student's earlier review
	review, err := reviews.SubmitReview(f.ctx, f.student.ID, course.ID, 2, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, 2, review.Rating)

	stored, err := f.content.GetCourse(f.ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.5, stored.Rating)
	assert.Equal(t, 2, stored.RatingCount)

	list, err := reviews.ListReviews(f.ctx, course.ID, 0, -1)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
