package course

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/course-market-api/handlers"
	"github.com/sahilchouksey/course-market-api/model"
	"github.com/sahilchouksey/course-market-api/services"
	"github.com/sahilchouksey/course-market-api/utils/logger"
	"github.com/sahilchouksey/course-market-api/utils/middleware"
	"github.com/sahilchouksey/course-market-api/utils/response"
	"github.com/sahilchouksey/course-market-api/utils/validation"
)

// CourseHandler handles course-level reads and reviews
type CourseHandler struct {
	access    *services.AccessControl
	reviews   *services.ReviewService
	analytics *services.AnalyticsService
	validator *validation.Validator
	log       *logger.Logger
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(access *services.AccessControl, reviews *services.ReviewService, analytics *services.AnalyticsService, log *logger.Logger) *CourseHandler {
	return &CourseHandler{
		access:    access,
		reviews:   reviews,
		analytics: analytics,
		validator: validation.NewValidator(),
		log:       log.With("handler", "course"),
	}
}

// SubmitReviewRequest represents the request body for reviewing a course
type SubmitReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// Curriculum handles GET /api/v1/courses/:id/curriculum
func (h *CourseHandler) Curriculum(c *fiber.Ctx) error {
	courseID, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	view, err := h.access.Curriculum(c.UserContext(), courseID, middleware.GetPrincipal(c))
	if err != nil {
		return handlers.RespondError(c, h.log, err)
	}
	return response.Success(c, view)
}

// SubmitReview handles POST /api/v1/courses/:id/reviews
func (h *CourseHandler) SubmitReview(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}
	courseID, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req SubmitReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, "", validation.FormatValidationErrors(err))
	}

	review, err := h.reviews.SubmitReview(c.UserContext(), userID, courseID, req.Rating, validation.SanitizeString(req.Comment))
	if err != nil {
		return handlers.RespondError(c, h.log, err)
	}
	return response.Created(c, review)
}

// ListReviews handles GET /api/v1/courses/:id/reviews
func (h *CourseHandler) ListReviews(c *fiber.Ctx) error {
	courseID, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	reviews, err := h.reviews.ListReviews(c.UserContext(), courseID, limit, offset)
	if err != nil {
		return handlers.RespondError(c, h.log, err)
	}
	return response.Paginated(c, reviews, len(reviews), limit, offset)
}

// Stats handles GET /api/v1/courses/:id/stats
func (h *CourseHandler) Stats(c *fiber.Ctx) error {
	courseID, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	if err := h.access.RequireCourseManager(c.UserContext(), courseID, middleware.GetPrincipal(c)); err != nil {
		return handlers.RespondError(c, h.log, err)
	}

	stats, err := h.analytics.GetCourseStats(c.UserContext(), courseID)
	if err != nil {
		return handlers.RespondError(c, h.log, err)
	}
	return response.Success(c, stats)
}

// InstructorDashboard handles GET /api/v1/instructor/dashboard
func (h *CourseHandler) InstructorDashboard(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	// admins may look at any instructor
	instructorID := userID
	if role, _ := middleware.GetUserRole(c); role == model.RoleAdmin {
		if q := strings.TrimSpace(c.Query("instructor_id")); q != "" {
			id := c.QueryInt("instructor_id", 0)
			if id <= 0 {
				return response.BadRequest(c, "Invalid instructor ID")
			}
			instructorID = uint(id)
		}
	}

	dashboard, err := h.analytics.GetInstructorDashboard(c.UserContext(), instructorID)
	if err != nil {
		return handlers.RespondError(c, h.log, err)
	}
	return response.Success(c, dashboard)
}
