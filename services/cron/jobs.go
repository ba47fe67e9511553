package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sahilchouksey/course-market-api/model"
	"gorm.io/datatypes"
)

const (
	JobSweepDirtyCourses  = "sweep_dirty_courses"
	JobReconcilePayments  = "reconcile_pending_payments"
	JobCleanupOldCronLogs = "cleanup_old_cron_logs"
	dirtyCourseBatch      = 50
	pendingPaymentBatch   = 100
	paymentGracePeriod    = 10 * time.Minute
	cronLogRetention      = 30 * 24 * time.Hour
)

// jobResult is what a job body reports back for its CronJobLog row
type jobResult struct {
	processed int
	failed    int
	message   string
	metadata  map[string]interface{}
}

// SweepDirtyCourses re-runs progress recalculation for courses still flagged dirty
// Runs every 5 minutes
func (m *CronManager) SweepDirtyCourses() {
	m.run(JobSweepDirtyCourses, 10*time.Minute, func(ctx context.Context) (*jobResult, error) {
		reports, err := m.recalculator.SweepDirtyCourses(ctx, dirtyCourseBatch)
		if err != nil {
			return nil, err
		}

		res := &jobResult{}
		deferred := 0
		for _, r := range reports {
			switch {
			case r.Deferred:
				deferred++
			case r.Failed > 0:
				res.failed++
			default:
				res.processed++
			}
		}
		res.message = fmt.Sprintf("Swept %d courses, %d deferred", len(reports), deferred)
		res.metadata = map[string]interface{}{"courses": len(reports), "deferred": deferred}
		return res, nil
	})
}

// ReconcilePendingPayments turns payments older than the grace period into enrollments
// Runs every 10 minutes
func (m *CronManager) ReconcilePendingPayments() {
	m.run(JobReconcilePayments, 5*time.Minute, func(ctx context.Context) (*jobResult, error) {
		report, err := m.payments.ReconcilePending(ctx, paymentGracePeriod, pendingPaymentBatch)
		if err != nil {
			return nil, err
		}
		return &jobResult{
			processed: report.Processed,
			failed:    report.Failed,
			message:   fmt.Sprintf("Reconciled %d of %d pending payments", report.Processed, report.Scanned),
		}, nil
	})
}

// CleanupOldCronLogs keeps only the last 30 days of job logs
// Runs daily at 3 AM
func (m *CronManager) CleanupOldCronLogs() {
	m.run(JobCleanupOldCronLogs, time.Minute, func(ctx context.Context) (*jobResult, error) {
		cutoff := m.now().Add(-cronLogRetention)
		result := m.db.WithContext(ctx).Where("started_at < ?", cutoff).Delete(&model.CronJobLog{})
		if result.Error != nil {
			return nil, result.Error
		}
		return &jobResult{
			processed: int(result.RowsAffected),
			message:   fmt.Sprintf("Cleaned %d old cron logs", result.RowsAffected),
		}, nil
	})
}

// run wraps one job execution in a CronJobLog row
func (m *CronManager) run(jobName string, timeout time.Duration, body func(ctx context.Context) (*jobResult, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	startedAt := m.now()
	m.log.Info("Starting job", "job", jobName)

	entry := model.CronJobLog{
		JobName:   jobName,
		Status:    "running",
		StartedAt: startedAt,
		Metadata:  datatypes.JSON("{}"),
	}
	if err := m.db.WithContext(ctx).Create(&entry).Error; err != nil {
		m.log.Warn("Failed to record job start", "job", jobName, "error", err)
	}

	res, err := body(ctx)
	completedAt := m.now()
	updates := map[string]interface{}{
		"completed_at": completedAt,
		"duration":     completedAt.Sub(startedAt).Milliseconds(),
	}
	if err != nil {
		m.log.Error("Job failed", "job", jobName, "error", err)
		updates["status"] = "failed"
		updates["error_msg"] = err.Error()
	} else {
		m.log.Info("Completed job", "job", jobName, "message", res.message, "processed", res.processed, "failed", res.failed)
		updates["status"] = "completed"
		updates["message"] = res.message
		updates["processed"] = res.processed
		updates["failed"] = res.failed
		if res.metadata != nil {
			if raw, merr := json.Marshal(res.metadata); merr == nil {
				updates["metadata"] = datatypes.JSON(raw)
			}
		}
	}

	if entry.ID == 0 {
		return
	}
	if uerr := m.db.Model(&model.CronJobLog{}).Where("id = ?", entry.ID).Updates(updates).Error; uerr != nil {
		m.log.Warn("Failed to record job result", "job", jobName, "error", uerr)
	}
}
