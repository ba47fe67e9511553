package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sahilchouksey/course-market-api/api"
	"github.com/sahilchouksey/course-market-api/config"
	"github.com/sahilchouksey/course-market-api/database"
	"github.com/sahilchouksey/course-market-api/router"
	"github.com/sahilchouksey/course-market-api/services"
	"github.com/sahilchouksey/course-market-api/services/cron"
	"github.com/sahilchouksey/course-market-api/services/media"
	"github.com/sahilchouksey/course-market-api/utils/auth"
	"github.com/sahilchouksey/course-market-api/utils/cache"
	"github.com/sahilchouksey/course-market-api/utils/logger"
	"github.com/sahilchouksey/course-market-api/utils/middleware"
	"gorm.io/gorm"
)

func SetupAndRunServer() error {
	// Load ENV; a missing .env in development is not fatal
	if err := config.LoadENV(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file loaded:", err)
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	log, err := logger.New(getEnv.LOG_MODE)
	if err != nil {
		return err
	}
	defer log.Sync()

	if getEnv.JWT_SECRET == "" {
		return fmt.Errorf("JWT_SECRET environment variable is not set")
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		log.Error("Check whether the Postgres is running or not", "error", err)
		return err
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Error("Failed to initialize database tables", "error", err)
		return err
	}
	db := store.GetDB().(*gorm.DB)

	// Redis backs the recalculation lock; a single instance can live without it
	var locker cache.Locker
	if redisCache, err := cache.NewRedisCache(getEnv.REDIS_URL); err != nil {
		log.Warn("Redis unavailable, using in-process recalculation lock", "error", err)
	} else {
		defer redisCache.Close()
		locker = redisCache
	}

	var signer services.MediaSigner
	if spaces, err := media.NewSpacesClient(media.ConfigFromEnv(getEnv)); err != nil {
		log.Warn("Lesson media signing disabled", "error", err)
	} else {
		signer = spaces
	}

	container := NewContainer(db, log, Options{
		JWT: auth.NewJWTManager(auth.JWTConfig{
			Secret: getEnv.JWT_SECRET,
			Expiry: 24 * time.Hour,
			Issuer: getEnv.JWT_ISSUER,
		}),
		Locker:            locker,
		Media:             signer,
		MediaTTL:          getEnv.MEDIA_URL_TTL,
		RecalcConcurrency: getEnv.RECALC_CONCURRENCY,
		WebhookSecret:     getEnv.PAYMENT_WEBHOOK_SECRET,
	})

	// Initialize Cron Manager (only if enabled via environment variable)
	if getEnv.CRON_ENABLED {
		cronManager := cron.NewCronManager(db, container.Recalculator, container.PaymentSvc, log)
		if err := cronManager.Start(); err != nil {
			// Don't fail the app, just log the warning
			log.Warn("Failed to start cron jobs", "error", err)
		} else {
			defer cronManager.Stop()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// React to lesson writes made outside this service
	if getEnv.CONTENT_LISTENER_ENABLED {
		listener := database.NewContentChangeListener(getEnv.PostgresDSN(), container.Recalculator.HandleContentChange, log).
			OnReconnect(container.Recalculator.HandleListenerReconnect)
		if err := listener.Start(ctx); err != nil {
			log.Warn("Content change listener not started", "error", err)
		} else {
			defer listener.Close()
		}
	}

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT), log)
	app := server.GetEngine()

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    os.Getenv("ALLOWED_ORIGINS"),
		RateLimitRequests: 120,
		RateLimitWindow:   time.Minute,
	})

	deps := container.RouterDeps()
	deps.Store = store
	router.SetupRoutes(app, deps)

	go func() {
		<-ctx.Done()
		log.Info("Shutting down API server")
		if err := server.Shutdown(10 * time.Second); err != nil {
			log.Error("Server shutdown failed", "error", err)
		}
	}()

	return server.Run()
}
