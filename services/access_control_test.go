package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/sahilchouksey/course-market-api/model"
	"github.com/sahilchouksey/course-market-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// previewCourse has one preview lesson followed by a locked one
func previewCourse(t *testing.T, f *fixture) (*model.Course, *model.Lesson, *model.Lesson) {
	t.Helper()
	course := testutil.SeedCourse(t, f.ctx, f.db, f.instructor.ID, 999)
	section := testutil.SeedSection(t, f.ctx, f.db, course.ID, 1)
	preview := testutil.SeedLesson(t, f.ctx, f.db, section, 1, true)
	locked := testutil.SeedLesson(t, f.ctx, f.db, section, 2, false)
	return course, preview, locked
}

func TestAnonymousSeesCurriculumButOnlyPreviewContent(t *testing.T) {
	f := newFixture(t)
	course, preview, locked := previewCourse(t, f)

	view, err := f.access.Curriculum(f.ctx, course.ID, nil)
	require.NoError(t, err)
	assert.False(t, view.HasFullAccess)
	assert.Equal(t, 2, view.TotalLessons)
	require.Len(t, view.Sections, 1)
	require.Len(t, view.Sections[0].Lessons, 2)
	assert.Equal(t, preview.ID, view.Sections[0].Lessons[0].ID)
	assert.True(t, view.Sections[0].Lessons[0].Accessible)
	assert.Equal(t, locked.ID, view.Sections[0].Lessons[1].ID)
	assert.False(t, view.Sections[0].Lessons[1].Accessible)

	content, err := f.access.LessonContent(f.ctx, course.ID, preview.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "body", content.Content)
	assert.True(t, strings.HasPrefix(content.MediaURL, "https://media.test/"+preview.MediaKey))
	assert.Equal(t, []string{"notes.pdf"}, content.Resources)

	calls := f.signer.calls
	_, err = f.access.LessonContent(f.ctx, course.ID, locked.ID, nil)
	assert.ErrorIs(t, err, ErrContentLocked)
	assert.Equal(t, KindForbidden, KindOf(err))
	assert.Equal(t, calls, f.signer.calls, "no media url may be signed for locked content")
}

func TestContentAccessRules(t *testing.T) {
	f := newFixture(t)
	course, _, locked := previewCourse(t, f)

	enrolled := testutil.SeedUser(t, f.ctx, f.db, model.RoleStudent)
	testutil.SeedEnrollment(t, f.ctx, f.db, enrolled.ID, course.ID)
	otherInstructor := testutil.SeedUser(t, f.ctx, f.db, model.RoleInstructor)

	cases := []struct {
		name      string
		principal *Principal
		allowed   bool
	}{
		{"anonymous", nil, false},
		{"admin", f.principal(f.admin), true},
		{"owning instructor", f.principal(f.instructor), true},
		{"other instructor", f.principal(otherInstructor), false},
		{"enrolled student", f.principal(enrolled), true},
		{"unenrolled student", f.principal(f.student), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			view, err := f.access.Curriculum(f.ctx, course.ID, tc.principal)
			require.NoError(t, err)
			assert.Equal(t, tc.allowed, view.HasFullAccess)

			_, err = f.access.LessonContent(f.ctx, course.ID, locked.ID, tc.principal)
			if tc.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrContentLocked)
			}
		})
	}
}

func TestUnpublishedCourseVisibility(t *testing.T) {
	f := newFixture(t)
	course, _, _ := previewCourse(t, f)
	testutil.SeedEnrollment(t, f.ctx, f.db, f.student.ID, course.ID)

	require.NoError(t, f.db.Model(course).Update("status", model.CourseStatusDraft).Error)
	_, err := f.access.Curriculum(f.ctx, course.ID, nil)
	assert.ErrorIs(t, err, ErrCourseNotFound)
	_, err = f.access.Curriculum(f.ctx, course.ID, f.principal(f.instructor))
	assert.NoError(t, err)

	require.NoError(t, f.db.Model(course).Update("status", model.CourseStatusArchived).Error)
	_, err = f.access.Curriculum(f.ctx, course.ID, nil)
	assert.ErrorIs(t, err, ErrCourseNotFound)
	view, err := f.access.Curriculum(f.ctx, course.ID, f.principal(f.student))
	require.NoError(t, err)
	assert.True(t, view.HasFullAccess)
}

func TestLessonContentErrors(t *testing.T) {
	f := newFixture(t)
	course, preview, _ := previewCourse(t, f)
	_, _, otherLessons := f.course(0, 1)

	_, err := f.access.LessonContent(f.ctx, course.ID, otherLessons[0].ID, f.principal(f.admin))
	assert.ErrorIs(t, err, ErrLessonNotFound)

	_, err = f.access.LessonContent(f.ctx, 777777, preview.ID, nil)
	assert.ErrorIs(t, err, ErrCourseNotFound)

	f.signer.err = errors.New("spaces unavailable")
	_, err = f.access.LessonContent(f.ctx, course.ID, preview.ID, nil)
	assert.Equal(t, KindTransient, KindOf(err))
}

func TestRequireCourseManager(t *testing.T) {
	f := newFixture(t)
	course, _, _ := f.course(0, 1)

	assert.NoError(t, f.access.RequireCourseManager(f.ctx, course.ID, f.principal(f.instructor)))
	assert.NoError(t, f.access.RequireCourseManager(f.ctx, course.ID, f.principal(f.admin)))
	assert.ErrorIs(t, f.access.RequireCourseManager(f.ctx, course.ID, f.principal(f.student)), ErrNotCourseOwner)
	assert.ErrorIs(t, f.access.RequireCourseManager(f.ctx, course.ID, nil), ErrNotCourseOwner)
	assert.ErrorIs(t, f.access.RequireCourseManager(f.ctx, 31337, f.principal(f.admin)), ErrCourseNotFound)
}
