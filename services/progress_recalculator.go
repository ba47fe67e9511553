package services

import (
	"context"
	"sync"
	"time"

	"github.com/sahilchouksey/course-market-api/model"
	"github.com/sahilchouksey/course-market-api/repository"
	"github.com/sahilchouksey/course-market-api/utils/cache"
	"github.com/sahilchouksey/course-market-api/utils/logger"
	"golang.org/x/sync/errgroup"
)

const (
	recalculationLockTTL = 10 * time.Minute
	reconnectSweepBatch  = 100
)

// RecalculationReport summarizes one pass over a course's enrollments
type RecalculationReport struct {
	CourseID  uint `json:"course_id"`
	Total     int  `json:"total"`
	Updated   int  `json:"updated"`
	Unchanged int  `json:"unchanged"`
	Failed    int  `json:"failed"`
	Deferred  bool `json:"deferred"` // another pass holds the course; it stays dirty for the sweeper
}

// Complete reports whether every enrollment is consistent with the current lesson set
func (r *RecalculationReport) Complete() bool {
	return !r.Deferred && r.Failed == 0
}

// ProgressRecalculator re-derives progress of every enrollment after a course's
// lesson set changed. Each enrollment is its own unit of work.
type ProgressRecalculator struct {
	content     repository.ContentStore
	enrollments repository.EnrollmentStore
	locker      cache.Locker
	concurrency int
	log         *logger.Logger
	now         func() time.Time
}

func NewProgressRecalculator(content repository.ContentStore, enrollments repository.EnrollmentStore, locker cache.Locker, concurrency int, baseLog *logger.Logger) *ProgressRecalculator {
	if concurrency < 1 {
		concurrency = 1
	}
	if locker == nil {
		locker = cache.NewLocalLocker()
	}
	return &ProgressRecalculator{
		content:     content,
		enrollments: enrollments,
		locker:      locker,
		concurrency: concurrency,
		log:         baseLog.With("service", "ProgressRecalculator"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// RecalculateCourseProgress drops completed ids that no longer exist in the course and
// recomputes percentage and status for every enrollment. Individual failures are counted,
// not returned; the course stays flagged dirty until a pass finishes without failures.
func (r *ProgressRecalculator) RecalculateCourseProgress(ctx context.Context, courseID uint) (*RecalculationReport, error) {
	// a started pass runs to the end even if the triggering request goes away
	ctx = context.WithoutCancel(ctx)
	report := &RecalculationReport{CourseID: courseID}

	exists, err := r.content.CourseExists(ctx, courseID)
	if err != nil {
		return nil, transient("check course", err)
	}
	if !exists {
		return nil, ErrCourseNotFound
	}

	if err := r.content.MarkProgressDirty(ctx, courseID, true); err != nil {
		return nil, transient("mark course dirty", err)
	}

	release, acquired, err := r.locker.TryLock(ctx, cache.CourseProgressLockKey(courseID), recalculationLockTTL)
	if release == nil {
		release = func() {}
	}
	if err != nil {
		// the per-row version check still keeps writes consistent
		r.log.Warn("Recalculation lock unavailable, continuing without it", "course_id", courseID, "error", err)
	} else if !acquired {
		r.log.Info("Recalculation already running, deferring", "course_id", courseID)
		report.Deferred = true
		return report, nil
	}
	defer release()

	// Cleared before the lesson set is read: a lesson write that lands during this
	// pass re-flags the course after this point, so the sweep picks it up again.
	if err := r.content.MarkProgressDirty(ctx, courseID, false); err != nil {
		return nil, transient("clear dirty flag", err)
	}

	lessonIDs, err := r.content.LessonIDsInCourse(ctx, courseID)
	if err != nil {
		r.remarkDirty(ctx, courseID)
		return nil, transient("load course lessons", err)
	}
	enrollments, err := r.enrollments.ListByCourse(ctx, courseID)
	if err != nil {
		r.remarkDirty(ctx, courseID)
		return nil, transient("list enrollments", err)
	}

	lessonSet := toSet(lessonIDs)
	report.Total = len(enrollments)

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)
	for i := range enrollments {
		enrollment := &enrollments[i]
		g.Go(func() error {
			changed, err := r.recalculateOne(ctx, enrollment, lessonSet, len(lessonIDs))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				report.Failed++
				r.log.Warn("Failed to recalculate enrollment",
					"course_id", courseID,
					"enrollment_id", enrollment.ID,
					"error", err,
				)
			case changed:
				report.Updated++
			default:
				report.Unchanged++
			}
			return nil
		})
	}
	_ = g.Wait()

	if report.Failed > 0 {
		r.remarkDirty(ctx, courseID)
	}

	r.log.Info("Recalculated course progress",
		"course_id", courseID,
		"total_lessons", len(lessonIDs),
		"enrollments", report.Total,
		"updated", report.Updated,
		"unchanged", report.Unchanged,
		"failed", report.Failed,
	)
	return report, nil
}

// recalculateOne brings a single enrollment in line with the lesson set
func (r *ProgressRecalculator) recalculateOne(ctx context.Context, enrollment *model.Enrollment, lessonSet map[uint]struct{}, totalLessons int) (bool, error) {
	_, changed, err := realign(ctx, r.enrollments, enrollment, lessonSet, totalLessons, r.now())
	return changed, err
}

// remarkDirty leaves the course for the sweep after an incomplete pass
func (r *ProgressRecalculator) remarkDirty(ctx context.Context, courseID uint) {
	if err := r.content.MarkProgressDirty(ctx, courseID, true); err != nil {
		r.log.Error("Failed to flag course for sweep", "course_id", courseID, "error", err)
	}
}

// SweepDirtyCourses re-runs the pass for courses left dirty by failed or deferred runs
func (r *ProgressRecalculator) SweepDirtyCourses(ctx context.Context, limit int) ([]*RecalculationReport, error) {
	ids, err := r.content.DirtyCourseIDs(ctx, limit)
	if err != nil {
		return nil, transient("list dirty courses", err)
	}

	reports := make([]*RecalculationReport, 0, len(ids))
	for _, id := range ids {
		report, err := r.RecalculateCourseProgress(ctx, id)
		if err != nil {
			r.log.Warn("Sweep failed for course", "course_id", id, "error", err)
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// HandleContentChange adapts the recalculator to the Postgres change listener
func (r *ProgressRecalculator) HandleContentChange(ctx context.Context, courseID uint) {
	if _, err := r.RecalculateCourseProgress(ctx, courseID); err != nil {
		r.log.Warn("Recalculation after content change failed", "course_id", courseID, "error", err)
	}
}

// HandleListenerReconnect flags every course dirty after notifications may have been
// lost, then sweeps the first batch. The periodic sweep drains the rest.
func (r *ProgressRecalculator) HandleListenerReconnect(ctx context.Context) {
	marked, err := r.content.MarkAllProgressDirty(ctx)
	if err != nil {
		r.log.Error("Failed to flag courses after listener reconnect", "error", err)
		return
	}
	reports, err := r.SweepDirtyCourses(ctx, reconnectSweepBatch)
	if err != nil {
		r.log.Warn("Sweep after listener reconnect failed", "error", err)
		return
	}
	r.log.Info("Swept courses after listener reconnect", "marked", marked, "swept", len(reports))
}
