package services

import (
	"testing"
	"time"

	"github.com/sahilchouksey/course-market-api/model"
	"github.com/stretchr/testify/assert"
)

func TestPercentageRounding(t *testing.T) {
	cases := []struct {
		completed, total, want int
	}{
		{0, 3, 0},
		{1, 2, 50},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13}, // 12.5 rounds up
		{3, 8, 38}, // 37.5 rounds up
		{1, 200, 1},
		{1, 201, 0},
		{3, 3, 100},
		{5, 3, 100},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Percentage(c.completed, c.total), "%d/%d", c.completed, c.total)
	}
}

func TestCompletionTransition(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	earlier := now.Add(-time.Hour)

	e := &model.Enrollment{Status: model.EnrollmentStatusEnrolled, Percentage: 100}
	applyCompletionTransition(e, now)
	assert.Equal(t, model.EnrollmentStatusCompleted, e.Status)
	if assert.NotNil(t, e.CompletedAt) {
		assert.Equal(t, now, *e.CompletedAt)
	}

	// staying completed keeps the original timestamp
	kept := &model.Enrollment{Status: model.EnrollmentStatusCompleted, Percentage: 100, CompletedAt: &earlier}
	applyCompletionTransition(kept, now)
	assert.Equal(t, earlier, *kept.CompletedAt)

	back := &model.Enrollment{Status: model.EnrollmentStatusCompleted, Percentage: 67, CompletedAt: &earlier}
	applyCompletionTransition(back, now)
	assert.Equal(t, model.EnrollmentStatusEnrolled, back.Status)
	assert.Nil(t, back.CompletedAt)
}

func TestRecomputeProgressWithoutLessons(t *testing.T) {
	e := &model.Enrollment{Status: model.EnrollmentStatusEnrolled, Percentage: 40, CompletedLessons: []uint{1}}
	recomputeProgress(e, 0, time.Now())
	assert.Equal(t, 40, e.Percentage)
	assert.Equal(t, model.EnrollmentStatusEnrolled, e.Status)
}

func TestKeepExisting(t *testing.T) {
	set := toSet([]uint{1, 2, 3})
	assert.Equal(t, []uint{3, 1}, keepExisting([]uint{3, 9, 1, 3}, set))
	assert.Equal(t, []uint{}, keepExisting(nil, set))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(ErrCourseNotFound))
	assert.Equal(t, KindConflict, KindOf(ErrAlreadyEnrolled))
	assert.Equal(t, KindForbidden, KindOf(ErrNotEnrolled))
	assert.Equal(t, KindForbidden, KindOf(ErrPaymentRequired))
	assert.Equal(t, KindValidation, KindOf(invalid("lesson %d", 4)))
	assert.Equal(t, KindTransient, KindOf(ErrConcurrentUpdate))
	assert.Equal(t, KindTransient, KindOf(transient("load", assert.AnError)))
	assert.Equal(t, KindUnknown, KindOf(assert.AnError))
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.Equal(t, "enroll to access", ErrContentLocked.Error())
}
