package cache

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Locker hands out short-lived exclusive locks keyed by name.
// acquired=false with a nil error means somebody else holds the key.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool, err error)
}

var (
	_ Locker = (*RedisCache)(nil)
	_ Locker = (*LocalLocker)(nil)
)

// LocalLocker is the single-process fallback used when Redis is not configured
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]time.Time), clock: time.Now}
}

func (l *LocalLocker) TryLock(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if until, ok := l.held[key]; ok && now.Before(until) {
		return func() {}, false, nil
	}
	until := now.Add(ttl)
	l.held[key] = until

	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		// an expired lock may already belong to someone else
		if l.held[key].Equal(until) {
			delete(l.held, key)
		}
	}
	return release, true, nil
}

// CourseProgressLockKey names the recalculation lock for one course
func CourseProgressLockKey(courseID uint) string {
	return "lock:course-progress:" + strconv.FormatUint(uint64(courseID), 10)
}
