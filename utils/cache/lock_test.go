package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerExclusive(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	release, ok, err := l.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must be refused")

	_, ok, _ = l.TryLock(ctx, "other", time.Minute)
	assert.True(t, ok, "different keys are independent")

	release()
	_, ok, _ = l.TryLock(ctx, "k", time.Minute)
	assert.True(t, ok, "released lock can be taken again")
}

func TestLocalLockerExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLocalLocker()
	l.clock = func() time.Time { return now }
	ctx := context.Background()

	staleRelease, ok, _ := l.TryLock(ctx, "k", time.Second)
	require.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok, _ = l.TryLock(ctx, "k", time.Minute)
	require.True(t, ok, "expired lock is up for grabs")

	// the first holder releasing late must not free the new holder's lock
	staleRelease()
	_, ok, _ = l.TryLock(ctx, "k", time.Minute)
	assert.False(t, ok)
}

func TestCourseProgressLockKey(t *testing.T) {
	assert.Equal(t, "lock:course-progress:0", CourseProgressLockKey(0))
	assert.Equal(t, "lock:course-progress:1203", CourseProgressLockKey(1203))
}
