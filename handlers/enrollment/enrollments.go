package enrollment

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/course-market-api/handlers"
	"github.com/sahilchouksey/course-market-api/services"
	"github.com/sahilchouksey/course-market-api/utils/logger"
	"github.com/sahilchouksey/course-market-api/utils/middleware"
	"github.com/sahilchouksey/course-market-api/utils/response"
)

// EnrollmentHandler handles a student's enrollments, progress and certificates
type EnrollmentHandler struct {
	engine       *services.EnrollmentService
	certificates *services.CertificateService
	log          *logger.Logger
}

func NewEnrollmentHandler(engine *services.EnrollmentService, certificates *services.CertificateService, log *logger.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		engine:       engine,
		certificates: certificates,
		log:          log.With("handler", "enrollment"),
	}
}

// Enroll handles POST /api/v1/courses/:id/enroll (free courses only; paid ones enroll through the payment webhook)
func (h *EnrollmentHandler) Enroll(c *fiber.Ctx) error {
	userID, courseID, ok := h.caller(c)
	if !ok {
		return response.BadRequest(c, "Invalid course ID")
	}

	enrollment, err := h.engine.EnrollFree(c.UserContext(), userID, courseID)
	if err != nil {
		return handlers.RespondError(c, h.log, err)
	}
	return response.Created(c, enrollment)
}

// Progress handles GET /api/v1/courses/:id/progress
func (h *EnrollmentHandler) Progress(c *fiber.Ctx) error {
	userID, courseID, ok := h.caller(c)
	if !ok {
		return response.BadRequest(c, "Invalid course ID")
	}

	progress, err := h.engine.GetProgress(c.UserContext(), userID, courseID)
	if err != nil {
		return handlers.RespondError(c, h.log, err)
	}
	return response.Success(c, progress)
}

// CompleteLesson handles POST /api/v1/courses/:id/lessons/:lesson_id/complete
func (h *EnrollmentHandler) CompleteLesson(c *fiber.Ctx) error {
	userID, courseID, ok := h.caller(c)
	if !ok {
		return response.BadRequest(c, "Invalid course ID")
	}
	lessonID, err := handlers.ParamID(c, "lesson_id")
	if err != nil {
		return response.BadRequest(c, "Invalid lesson ID")
	}

	enrollment, err := h.engine.MarkLessonCompleted(c.UserContext(), userID, courseID, lessonID)
	if err != nil {
		return handlers.RespondError(c, h.log, err)
	}
	return response.Success(c, enrollment)
}

// ListMine handles GET /api/v1/me/enrollments
func (h *EnrollmentHandler) ListMine(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	enrollments, err := h.engine.ListStudentEnrollments(c.UserContext(), userID)
	if err != nil {
		return handlers.RespondError(c, h.log, err)
	}
	return response.Success(c, enrollments)
}

// IssueCertificate handles POST /api/v1/courses/:id/certificate
func (h *EnrollmentHandler) IssueCertificate(c *fiber.Ctx) error {
	userID, courseID, ok := h.caller(c)
	if !ok {
		return response.BadRequest(c, "Invalid course ID")
	}

	certificate, err := h.certificates.IssueCertificate(c.UserContext(), userID, courseID)
	if err != nil {
		return handlers.RespondError(c, h.log, err)
	}
	return response.Success(c, certificate)
}

// VerifyCertificate handles GET /api/v1/certificates/:number
func (h *EnrollmentHandler) VerifyCertificate(c *fiber.Ctx) error {
	certificate, err := h.certificates.Verify(c.UserContext(), c.Params("number"))
	if err != nil {
		return handlers.RespondError(c, h.log, err)
	}
	return response.Success(c, certificate)
}

// caller returns the authenticated user and the :id course parameter
func (h *EnrollmentHandler) caller(c *fiber.Ctx) (uint, uint, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return 0, 0, false
	}
	courseID, err := handlers.ParamID(c, "id")
	if err != nil {
		return 0, 0, false
	}
	return userID, courseID, true
}
