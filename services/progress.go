package services

import (
	"context"
	"time"

	"github.com/sahilchouksey/course-market-api/model"
	"github.com/sahilchouksey/course-market-api/repository"
)

// Percentage is round(100*completed/total) with halves rounded up, clamped to 0..100.
// Callers must not pass total <= 0; the value is undefined there and progress is left alone.
func Percentage(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	p := (200*completed + total) / (2 * total)
	if p > 100 {
		return 100
	}
	return p
}

// applyCompletionTransition keeps status and completed_at coupled to the percentage.
// completed_at is stamped only on the way into completed and cleared on the way out.
func applyCompletionTransition(e *model.Enrollment, now time.Time) {
	if e.Percentage >= 100 {
		if e.Status != model.EnrollmentStatusCompleted || e.CompletedAt == nil {
			e.Status = model.EnrollmentStatusCompleted
			t := now
			e.CompletedAt = &t
		}
		return
	}
	e.Status = model.EnrollmentStatusEnrolled
	e.CompletedAt = nil
}

// recomputeProgress derives percentage and status from the completed set.
// With no lessons in the course the percentage keeps its previous value.
func recomputeProgress(e *model.Enrollment, totalLessons int, now time.Time) {
	if totalLessons > 0 {
		e.Percentage = Percentage(len(e.CompletedLessons), totalLessons)
	}
	applyCompletionTransition(e, now)
}

// keepExisting returns the ids still present in lessonSet, preserving order and dropping duplicates
func keepExisting(ids []uint, lessonSet map[uint]struct{}) []uint {
	kept := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := lessonSet[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		kept = append(kept, id)
	}
	return kept
}

func toSet(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func progressChanged(before, after *model.Enrollment) bool {
	if before.Percentage != after.Percentage || before.Status != after.Status {
		return true
	}
	if (before.CompletedAt == nil) != (after.CompletedAt == nil) {
		return true
	}
	if len(before.CompletedLessons) != len(after.CompletedLessons) {
		return true
	}
	for i := range before.CompletedLessons {
		if before.CompletedLessons[i] != after.CompletedLessons[i] {
			return true
		}
	}
	return false
}

// realign rewrites enrollment against lessonSet, reloading and retrying on version
// conflicts. It returns the stored state and whether a write happened.
func realign(ctx context.Context, store repository.EnrollmentStore, enrollment *model.Enrollment, lessonSet map[uint]struct{}, totalLessons int, now time.Time) (*model.Enrollment, bool, error) {
	current := enrollment
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		next := *current
		next.CompletedLessons = keepExisting(current.CompletedLessons, lessonSet)
		recomputeProgress(&next, totalLessons, now)

		if !progressChanged(current, &next) {
			return current, false, nil
		}

		updated, err := store.ConditionalUpdate(ctx, &next, current.Version)
		if err != nil {
			return nil, false, transient("save progress", err)
		}
		if updated {
			return &next, true, nil
		}

		fresh, err := store.FindByID(ctx, current.ID)
		if err != nil {
			return nil, false, transient("reload enrollment", err)
		}
		current = fresh
	}
	return nil, false, ErrConcurrentUpdate
}

func sameSet(ids []uint, set map[uint]struct{}) bool {
	if len(toSet(ids)) != len(set) {
		return false
	}
	for _, id := range ids {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}
