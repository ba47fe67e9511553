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

// Principal is the authenticated caller; a nil *Principal is an anonymous visitor
type Principal struct {
	ID   uint
	Role string
}

func (p *Principal) isAdmin() bool {
	return p != nil && p.Role == model.RoleAdmin
}

// MediaSigner turns an opaque media key into a short-lived download URL
type MediaSigner interface {
	SignedURL(key string, ttl time.Duration) (string, error)
}

// LessonSummary is the metadata every visitor may see
type LessonSummary struct {
	ID         uint             `json:"id"`
	Title      string           `json:"title"`
	Type       model.LessonType `json:"type"`
	Duration   int              `json:"duration"`
	IsPreview  bool             `json:"is_preview"`
	Order      int              `json:"order"`
	Accessible bool             `json:"accessible"`
}

type SectionView struct {
	ID      uint            `json:"id"`
	Title   string          `json:"title"`
	Order   int             `json:"order"`
	Lessons []LessonSummary `json:"lessons"`
}

type CurriculumView struct {
	CourseID      uint          `json:"course_id"`
	Title         string        `json:"title"`
	HasFullAccess bool          `json:"has_full_access"`
	TotalLessons  int           `json:"total_lessons"`
	Sections      []SectionView `json:"sections"`
}

// LessonContentView is the full lesson, only built once access is granted
type LessonContentView struct {
	LessonSummary
	Content   string   `json:"content,omitempty"`
	MediaURL  string   `json:"media_url,omitempty"`
	Resources []string `json:"resources"`
}

// AccessControl is the one place that decides who may see lesson bodies.
// Rule order: admin, owning instructor, enrolled student, otherwise previews only.
type AccessControl struct {
	content     repository.ContentStore
	enrollments repository.EnrollmentStore
	media       MediaSigner
	mediaTTL    time.Duration
	log         *logger.Logger
}

// NewAccessControl creates the access policy; media may be nil when no blob store is configured
func NewAccessControl(content repository.ContentStore, enrollments repository.EnrollmentStore, media MediaSigner, mediaTTL time.Duration, baseLog *logger.Logger) *AccessControl {
	if mediaTTL <= 0 {
		mediaTTL = 15 * time.Minute
	}
	return &AccessControl{
		content:     content,
		enrollments: enrollments,
		media:       media,
		mediaTTL:    mediaTTL,
		log:         baseLog.With("service", "AccessControl"),
	}
}

// CanViewContent reports whether principal gets every lesson body of course
func (a *AccessControl) CanViewContent(ctx context.Context, course *model.Course, principal *Principal) (bool, error) {
	if principal == nil || principal.ID == 0 {
		return false, nil
	}
	if principal.isAdmin() {
		return true, nil
	}
	if principal.Role == model.RoleInstructor && course.InstructorID == principal.ID {
		return true, nil
	}

	_, err := a.enrollments.FindByStudentAndCourse(ctx, principal.ID, course.ID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, transient("check enrollment", err)
}

// CanManageCourse reports whether principal may change the course or read its revenue
func (a *AccessControl) CanManageCourse(ctx context.Context, courseID uint, principal *Principal) (bool, error) {
	if principal == nil || principal.ID == 0 {
		return false, nil
	}
	if principal.isAdmin() {
		return true, nil
	}
	if principal.Role != model.RoleInstructor {
		return false, nil
	}
	owned, err := a.content.IsCourseOwnedBy(ctx, courseID, principal.ID)
	if err != nil {
		return false, transient("check course owner", err)
	}
	return owned, nil
}

// RequireCourseManager fails with ErrNotCourseOwner unless principal manages the course
func (a *AccessControl) RequireCourseManager(ctx context.Context, courseID uint, principal *Principal) error {
	exists, err := a.content.CourseExists(ctx, courseID)
	if err != nil {
		return transient("check course", err)
	}
	if !exists {
		return ErrCourseNotFound
	}
	ok, err := a.CanManageCourse(ctx, courseID, principal)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotCourseOwner
	}
	return nil
}

// Curriculum lists every lesson's metadata with a per-lesson accessible flag
func (a *AccessControl) Curriculum(ctx context.Context, courseID uint, principal *Principal) (*CurriculumView, error) {
	course, err := a.visibleCourse(ctx, courseID, principal)
	if err != nil {
		return nil, err
	}

	full, err := a.CanViewContent(ctx, course, principal)
	if err != nil {
		return nil, err
	}

	sections, err := a.content.Curriculum(ctx, courseID)
	if err != nil {
		return nil, transient("load curriculum", err)
	}

	view := &CurriculumView{
		CourseID:      course.ID,
		Title:         course.Title,
		HasFullAccess: full,
		Sections:      make([]SectionView, 0, len(sections)),
	}
	for _, section := range sections {
		sv := SectionView{
			ID:      section.ID,
			Title:   section.Title,
			Order:   section.Order,
			Lessons: make([]LessonSummary, 0, len(section.Lessons)),
		}
		for _, lesson := range section.Lessons {
			sv.Lessons = append(sv.Lessons, summarize(&lesson, full || lesson.IsPreview))
		}
		view.TotalLessons += len(sv.Lessons)
		view.Sections = append(view.Sections, sv)
	}
	return view, nil
}

// LessonContent returns one lesson in full, or ErrContentLocked when the caller may only preview
func (a *AccessControl) LessonContent(ctx context.Context, courseID, lessonID uint, principal *Principal) (*LessonContentView, error) {
	course, err := a.visibleCourse(ctx, courseID, principal)
	if err != nil {
		return nil, err
	}

	lesson, err := a.content.GetLesson(ctx, courseID, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, transient("load lesson", err)
	}

	if !lesson.IsPreview {
		full, err := a.CanViewContent(ctx, course, principal)
		if err != nil {
			return nil, err
		}
		if !full {
			return nil, ErrContentLocked
		}
	}

	view := &LessonContentView{
		LessonSummary: summarize(lesson, true),
		Content:       lesson.Content,
		Resources:     append([]string{}, lesson.Resources...),
	}
	if lesson.MediaKey != "" && a.media != nil {
		url, err := a.media.SignedURL(lesson.MediaKey, a.mediaTTL)
		if err != nil {
			a.log.Error("Failed to sign lesson media", "lesson_id", lesson.ID, "error", err)
			return nil, transient("sign media url", err)
		}
		view.MediaURL = url
	}
	return view, nil
}

// visibleCourse hides unpublished courses from everyone who cannot manage them
func (a *AccessControl) visibleCourse(ctx context.Context, courseID uint, principal *Principal) (*model.Course, error) {
	course, err := a.content.GetCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, transient("load course", err)
	}
	if course.Status == model.CourseStatusPublished {
		return course, nil
	}
	if principal.isAdmin() || (principal != nil && principal.Role == model.RoleInstructor && course.InstructorID == principal.ID) {
		return course, nil
	}
	// enrolled students keep access to archived courses they paid for
	if course.Status == model.CourseStatusArchived {
		ok, err := a.CanViewContent(ctx, course, principal)
		if err != nil {
			return nil, err
		}
		if ok {
			return course, nil
		}
	}
	return nil, ErrCourseNotFound
}

func summarize(lesson *model.Lesson, accessible bool) LessonSummary {
	return LessonSummary{
		ID:         lesson.ID,
		Title:      lesson.Title,
		Type:       lesson.Type,
		Duration:   lesson.Duration,
		IsPreview:  lesson.IsPreview,
		Order:      lesson.Order,
		Accessible: accessible,
	}
}
