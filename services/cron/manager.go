package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sahilchouksey/course-market-api/services"
	"github.com/sahilchouksey/course-market-api/utils/logger"
	"gorm.io/gorm"
)

// Recalculator re-runs progress passes for courses left dirty
type Recalculator interface {
	SweepDirtyCourses(ctx context.Context, limit int) ([]*services.RecalculationReport, error)
}

// Reconciler replays payments that never turned into enrollments
type Reconciler interface {
	ReconcilePending(ctx context.Context, grace time.Duration, limit int) (*services.ReconcileReport, error)
}

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron         *cron.Cron
	db           *gorm.DB
	recalculator Recalculator
	payments     Reconciler
	log          *logger.Logger
	now          func() time.Time
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB, recalculator Recalculator, payments Reconciler, baseLog *logger.Logger) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron:         c,
		db:           db,
		recalculator: recalculator,
		payments:     payments,
		log:          baseLog.With("component", "cron"),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	m.log.Info("Starting cron jobs")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	m.log.Info("Cron jobs started", "jobs", len(m.cron.Entries()))
	return nil
}

// Stop stops all cron jobs and waits for running ones
func (m *CronManager) Stop() {
	m.log.Info("Stopping cron jobs")
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.log.Info("Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// 1. Every 5 minutes: finish progress recalculations that failed or were deferred
	if _, err := m.cron.AddFunc("0 */5 * * * *", m.SweepDirtyCourses); err != nil {
		return err
	}

	// 2. Every 10 minutes: replay payments stuck in received
	if _, err := m.cron.AddFunc("0 */10 * * * *", m.ReconcilePendingPayments); err != nil {
		return err
	}

	// 3. Daily at 3 AM: drop old job logs
	if _, err := m.cron.AddFunc("0 0 3 * * *", m.CleanupOldCronLogs); err != nil {
		return err
	}

	m.log.Info("All cron jobs registered")
	return nil
}
