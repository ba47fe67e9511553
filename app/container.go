package app

import (
	"time"

	"github.com/sahilchouksey/course-market-api/database"
	admin_handlers "github.com/sahilchouksey/course-market-api/handlers/admin"
	course_handlers "github.com/sahilchouksey/course-market-api/handlers/course"
	enrollment_handlers "github.com/sahilchouksey/course-market-api/handlers/enrollment"
	lesson_handlers "github.com/sahilchouksey/course-market-api/handlers/lesson"
	payment_handlers "github.com/sahilchouksey/course-market-api/handlers/payment"
	"github.com/sahilchouksey/course-market-api/repository"
	"github.com/sahilchouksey/course-market-api/router"
	"github.com/sahilchouksey/course-market-api/services"
	"github.com/sahilchouksey/course-market-api/utils/auth"
	"github.com/sahilchouksey/course-market-api/utils/cache"
	"github.com/sahilchouksey/course-market-api/utils/logger"
	"github.com/sahilchouksey/course-market-api/utils/middleware"
	"gorm.io/gorm"
)

// Options are the infrastructure choices made at startup
type Options struct {
	JWT               *auth.JWTManager
	Locker            cache.Locker         // nil falls back to an in-process lock
	Media             services.MediaSigner // nil serves lessons without media URLs
	MediaTTL          time.Duration
	RecalcConcurrency int
	WebhookSecret     string
}

// Container holds the stores and services of one process
type Container struct {
	DB  *gorm.DB
	Log *logger.Logger

	Content      repository.ContentStore
	Enrollments  repository.EnrollmentStore
	Payments     repository.PaymentStore
	Users        repository.UserStore
	Engine       *services.EnrollmentService
	Access       *services.AccessControl
	Recalculator *services.ProgressRecalculator
	Curriculum   *services.CurriculumService
	PaymentSvc   *services.PaymentService
	Reviews      *services.ReviewService
	Certificates *services.CertificateService
	Analytics    *services.AnalyticsService
	UserSvc      *services.UserService

	opts Options
}

func NewContainer(db *gorm.DB, log *logger.Logger, opts Options) *Container {
	c := &Container{
		DB:          db,
		Log:         log,
		Content:     repository.NewContentStore(db, log),
		Enrollments: repository.NewEnrollmentStore(db, log),
		Payments:    repository.NewPaymentStore(db, log),
		Users:       repository.NewUserStore(db, log),
		opts:        opts,
	}

	c.Engine = services.NewEnrollmentService(c.Content, c.Enrollments, log)
	c.Access = services.NewAccessControl(c.Content, c.Enrollments, opts.Media, opts.MediaTTL, log)
	c.Recalculator = services.NewProgressRecalculator(c.Content, c.Enrollments, opts.Locker, opts.RecalcConcurrency, log)
	c.Curriculum = services.NewCurriculumService(c.Content, c.Access, c.Recalculator, log)
	c.PaymentSvc = services.NewPaymentService(c.Payments, c.Engine, log)
	c.Reviews = services.NewReviewService(repository.NewReviewStore(db, log), c.Enrollments, c.Content, log)
	c.Certificates = services.NewCertificateService(repository.NewCertificateStore(db, log), c.Enrollments, log)
	c.Analytics = services.NewAnalyticsService(c.Enrollments, c.Content, log)
	c.UserSvc = services.NewUserService(c.Users, c.Enrollments, log)
	return c
}

// RouterDeps builds the handlers on top of the container's services
func (c *Container) RouterDeps() router.Deps {
	return router.Deps{
		Store:       database.NewGORMStore(c.DB),
		DB:          c.DB,
		Auth:        middleware.NewAuthMiddleware(c.opts.JWT, c.Users),
		Courses:     course_handlers.NewCourseHandler(c.Access, c.Reviews, c.Analytics, c.Log),
		Lessons:     lesson_handlers.NewLessonHandler(c.Access, c.Curriculum, c.Log),
		Enrollments: enrollment_handlers.NewEnrollmentHandler(c.Engine, c.Certificates, c.Log),
		Payments:    payment_handlers.NewWebhookHandler(c.PaymentSvc, c.opts.WebhookSecret, c.Log),
		Admin:       admin_handlers.NewAdminHandler(c.Recalculator, c.UserSvc, c.Log),
		Log:         c.Log,
	}
}
