package admin

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/course-market-api/handlers"
	"github.com/sahilchouksey/course-market-api/services"
	"github.com/sahilchouksey/course-market-api/utils/logger"
	"github.com/sahilchouksey/course-market-api/utils/middleware"
	"github.com/sahilchouksey/course-market-api/utils/response"
)

// AdminHandler serves moderation endpoints; every route is audited by middleware.AdminAuditLog
type AdminHandler struct {
	recalculator *services.ProgressRecalculator
	users        *services.UserService
	log          *logger.Logger
}

func NewAdminHandler(recalculator *services.ProgressRecalculator, users *services.UserService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		recalculator: recalculator,
		users:        users,
		log:          log.With("handler", "admin"),
	}
}

// RecalculateProgress handles POST /api/v1/admin/courses/:id/recalculate-progress
func (h *AdminHandler) RecalculateProgress(c *fiber.Ctx) error {
	courseID, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	report, err := h.recalculator.RecalculateCourseProgress(c.UserContext(), courseID)
	if err != nil {
		return handlers.RespondError(c, h.log, err)
	}
	if report.Deferred {
		return c.Status(fiber.StatusAccepted).JSON(response.Response{
			Success: true,
			Message: "Recalculation already running; the course will be swept again",
			Data:    report,
		})
	}
	return response.Success(c, report)
}

// DeleteUser handles DELETE /api/v1/admin/users/:id
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	userID, err := handlers.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}
	if adminID, _ := middleware.GetUserID(c); adminID == userID {
		return response.BadRequest(c, "Cannot delete your own account")
	}

	removal, err := h.users.RemoveUser(c.UserContext(), userID)
	if err != nil {
		return handlers.RespondError(c, h.log, err)
	}
	return response.SuccessWithMessage(c, "User deleted", removal)
}
