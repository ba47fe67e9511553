package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/course-market-api/database"
	"github.com/sahilchouksey/course-market-api/handlers"
	admin_handlers "github.com/sahilchouksey/course-market-api/handlers/admin"
	course_handlers "github.com/sahilchouksey/course-market-api/handlers/course"
	enrollment_handlers "github.com/sahilchouksey/course-market-api/handlers/enrollment"
	lesson_handlers "github.com/sahilchouksey/course-market-api/handlers/lesson"
	payment_handlers "github.com/sahilchouksey/course-market-api/handlers/payment"
	"github.com/sahilchouksey/course-market-api/model"
	"github.com/sahilchouksey/course-market-api/utils/logger"
	"github.com/sahilchouksey/course-market-api/utils/middleware"
	"gorm.io/gorm"
)

// Deps is everything the route table needs; app builds it
type Deps struct {
	Store       database.Storage
	DB          *gorm.DB
	Auth        *middleware.AuthMiddleware
	Courses     *course_handlers.CourseHandler
	Lessons     *lesson_handlers.LessonHandler
	Enrollments *enrollment_handlers.EnrollmentHandler
	Payments    *payment_handlers.WebhookHandler
	Admin       *admin_handlers.AdminHandler
	Log         *logger.Logger
}

func SetupRoutes(app *fiber.App, d Deps) {
	authMiddleware := d.Auth
	manager := []fiber.Handler{authMiddleware.Required(), authMiddleware.RequireRole(model.RoleInstructor, model.RoleAdmin)}

	// Health check
	app.Get("/ping", handlers.HandleCheckHealth(d.Store))

	api := app.Group("/api/v1")

	// Courses: curriculum and previews are public, the rest needs a principal
	courses := api.Group("/courses")
	courses.Get("/:id/curriculum", authMiddleware.Optional(), d.Courses.Curriculum)
	courses.Get("/:id/lessons/:lesson_id", authMiddleware.Optional(), d.Lessons.GetContent)
	courses.Get("/:id/reviews", d.Courses.ListReviews)

	courses.Post("/:id/enroll", authMiddleware.Required(), d.Enrollments.Enroll)
	courses.Get("/:id/progress", authMiddleware.Required(), d.Enrollments.Progress)
	courses.Post("/:id/lessons/:lesson_id/complete", authMiddleware.Required(), d.Enrollments.CompleteLesson)
	courses.Post("/:id/reviews", authMiddleware.Required(), d.Courses.SubmitReview)
	courses.Post("/:id/certificate", authMiddleware.Required(), d.Enrollments.IssueCertificate)

	// Course management (ownership is checked by the services)
	courses.Post("/:id/sections/:section_id/lessons", append(manager, d.Lessons.Add)...)
	courses.Delete("/:id/lessons/:lesson_id", append(manager, d.Lessons.Remove)...)
	courses.Get("/:id/stats", append(manager, d.Courses.Stats)...)
	api.Get("/instructor/dashboard", append(manager, d.Courses.InstructorDashboard)...)

	// Student
	me := api.Group("/me", authMiddleware.Required())
	me.Get("/enrollments", d.Enrollments.ListMine)

	api.Get("/certificates/:number", d.Enrollments.VerifyCertificate)

	// Payment provider callbacks (HMAC signed, no JWT)
	api.Post("/webhooks/payments", d.Payments.Webhook)

	// Admin
	admin := api.Group("/admin", authMiddleware.RequireAdmin())
	admin.Post("/courses/:id/recalculate-progress",
		middleware.AdminAuditLog(d.DB, d.Log, "course_recalculate", "courses"),
		d.Admin.RecalculateProgress)
	admin.Delete("/users/:id",
		middleware.AdminAuditLog(d.DB, d.Log, "user_delete", "users"),
		d.Admin.DeleteUser)
}
