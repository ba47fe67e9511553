package lesson

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/course-market-api/handlers"
	"github.com/sahilchouksey/course-market-api/services"
	"github.com/sahilchouksey/course-market-api/utils/logger"
	"github.com/sahilchouksey/course-market-api/utils/middleware"
	"github.com/sahilchouksey/course-market-api/utils/response"
	"github.com/sahilchouksey/course-market-api/utils/validation"
)

// LessonHandler serves lesson bodies and curriculum edits
type LessonHandler struct {
	access     *services.AccessControl
	curriculum *services.CurriculumService
	validator  *validation.Validator
	log        *logger.Logger
}

func NewLessonHandler(access *services.AccessControl, curriculum *services.CurriculumService, log *logger.Logger) *LessonHandler {
	return &LessonHandler{
		access:     access,
		curriculum: curriculum,
		validator:  validation.NewValidator(),
		log:        log.With("handler", "lesson"),
	}
}

// GetContent handles GET /api/v1/courses/:id/lessons/:lesson_id
func (h *LessonHandler) GetContent(c *fiber.Ctx) error {
	courseID, lessonID, ok := ids(c)
	if !ok {
		return response.BadRequest(c, "Invalid course or lesson ID")
	}

	view, err := h.access.LessonContent(c.UserContext(), courseID, lessonID, middleware.GetPrincipal(c))
	if err != nil {
		return handlers.RespondError(c, h.log, err)
	}
	return response.Success(c, view)
}

// Add handles POST /api/v1/courses/:id/sections/:section_id/lessons
func (h *LessonHandler) Add(c *fiber.Ctx) error {
	courseID, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}
	sectionID, err := handlers.ParamID(c, "section_id")
	if err != nil {
		return response.BadRequest(c, "Invalid section ID")
	}

	var req services.LessonInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, "", validation.FormatValidationErrors(err))
	}

	change, err := h.curriculum.AddLesson(c.UserContext(), middleware.GetPrincipal(c), courseID, sectionID, req)
	if err != nil {
		return handlers.RespondError(c, h.log, err)
	}
	return response.Created(c, change)
}

// Remove handles DELETE /api/v1/courses/:id/lessons/:lesson_id
func (h *LessonHandler) Remove(c *fiber.Ctx) error {
	courseID, lessonID, ok := ids(c)
	if !ok {
		return response.BadRequest(c, "Invalid course or lesson ID")
	}

	change, err := h.curriculum.RemoveLesson(c.UserContext(), middleware.GetPrincipal(c), courseID, lessonID)
	if err != nil {
		return handlers.RespondError(c, h.log, err)
	}
	return response.SuccessWithMessage(c, "Lesson removed", change)
}

func ids(c *fiber.Ctx) (uint, uint, bool) {
	courseID, err := handlers.ParamID(c, "id")
	if err != nil {
		return 0, 0, false
	}
	lessonID, err := handlers.ParamID(c, "lesson_id")
	if err != nil {
		return 0, 0, false
	}
	return courseID, lessonID, true
}
