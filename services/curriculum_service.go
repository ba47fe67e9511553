package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sahilchouksey/course-market-api/model"
	"github.com/sahilchouksey/course-market-api/repository"
	"github.com/sahilchouksey/course-market-api/utils/logger"
	"gorm.io/gorm"
)

// LessonInput describes a lesson an instructor adds to a section
type LessonInput struct {
	Title     string           `json:"title" validate:"required,max=200"`
	Type      model.LessonType `json:"type" validate:"required,oneof=video article quiz"`
	Duration  int              `json:"duration" validate:"required,gt=0"`
	IsPreview bool             `json:"is_preview"`
	Order     int              `json:"order" validate:"gte=0"`
	Content   string           `json:"content"`
	MediaKey  string           `json:"media_key" validate:"max=500"`
	Resources []string         `json:"resources"`
}

// CurriculumChange is the result of a lesson-set mutation plus the follow-up recalculation
type CurriculumChange struct {
	Lesson        *model.Lesson        `json:"lesson,omitempty"`
	Recalculation *RecalculationReport `json:"recalculation,omitempty"`
}

// CurriculumService adds and removes lessons. Every change to the lesson set is
// followed by an explicit progress recalculation for the course.
type CurriculumService struct {
	content      repository.ContentStore
	access       *AccessControl
	recalculator *ProgressRecalculator
	log          *logger.Logger
}

func NewCurriculumService(content repository.ContentStore, access *AccessControl, recalculator *ProgressRecalculator, baseLog *logger.Logger) *CurriculumService {
	return &CurriculumService{
		content:      content,
		access:       access,
		recalculator: recalculator,
		log:          baseLog.With("service", "CurriculumService"),
	}
}

func (s *CurriculumService) AddLesson(ctx context.Context, actor *Principal, courseID, sectionID uint, input LessonInput) (*CurriculumChange, error) {
	if err := s.access.RequireCourseManager(ctx, courseID, actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, invalid("lesson title is required")
	}
	if input.Duration <= 0 {
		return nil, invalid("lesson duration must be positive")
	}

	section, err := s.content.GetSection(ctx, courseID, sectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid("section %d does not belong to course %d", sectionID, courseID)
		}
		return nil, transient("load section", err)
	}

	lessonType := input.Type
	if lessonType == "" {
		lessonType = model.LessonTypeVideo
	}
	lesson := &model.Lesson{
		SectionID: section.ID,
		CourseID:  courseID,
		Title:     strings.TrimSpace(input.Title),
		Type:      lessonType,
		Duration:  input.Duration,
		IsPreview: input.IsPreview,
		Order:     input.Order,
		Content:   input.Content,
		MediaKey:  input.MediaKey,
		Resources: append([]string{}, input.Resources...),
	}
	if err := s.content.CreateLesson(ctx, lesson); err != nil {
		return nil, transient("create lesson", err)
	}

	s.log.Info("Lesson added", "course_id", courseID, "section_id", section.ID, "lesson_id", lesson.ID)
	return &CurriculumChange{Lesson: lesson, Recalculation: s.recalculate(ctx, courseID)}, nil
}

func (s *CurriculumService) RemoveLesson(ctx context.Context, actor *Principal, courseID, lessonID uint) (*CurriculumChange, error) {
	if err := s.access.RequireCourseManager(ctx, courseID, actor); err != nil {
		return nil, err
	}

	deleted, err := s.content.DeleteLesson(ctx, courseID, lessonID)
	if err != nil {
		return nil, transient("delete lesson", err)
	}
	if !deleted {
		return nil, ErrLessonNotFound
	}

	s.log.Info("Lesson removed", "course_id", courseID, "lesson_id", lessonID)
	return &CurriculumChange{Recalculation: s.recalculate(ctx, courseID)}, nil
}

// recalculate runs after the lesson write committed. A failure leaves the course
// flagged dirty for the cron sweep instead of failing the write.
func (s *CurriculumService) recalculate(ctx context.Context, courseID uint) *RecalculationReport {
	report, err := s.recalculator.RecalculateCourseProgress(ctx, courseID)
	if err != nil {
		s.log.Warn("Progress recalculation failed, course left for sweep", "course_id", courseID, "error", err)
		if derr := s.content.MarkProgressDirty(ctx, courseID, true); derr != nil {
			s.log.Error("Failed to flag course for sweep", "course_id", courseID, "error", derr)
		}
		return nil
	}
	return report
}
