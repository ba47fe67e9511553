package repository

import (
	"context"
	"testing"
	"time"

	"github.com/sahilchouksey/course-market-api/model"
	"github.com/sahilchouksey/course-market-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentStoreRecordIsInsertOrIgnore(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	store := NewPaymentStore(db, testutil.Logger(t))

	first := &model.CoursePayment{StudentID: 1, CourseID: 2, PaymentReference: "pay_1", Amount: 49}
	created, err := store.Record(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, model.PaymentStatusReceived, first.Status)

	again := &model.CoursePayment{StudentID: 1, CourseID: 2, PaymentReference: "pay_1", Amount: 49}
	created, err = store.Record(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	require.NoError(t, store.MarkProcessed(ctx, first.ID, 77))
	stored, err := store.FindByReference(ctx, "pay_1")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusProcessed, stored.Status)
	require.NotNil(t, stored.EnrollmentID)
	assert.Equal(t, uint(77), *stored.EnrollmentID)
	assert.NotNil(t, stored.ProcessedAt)
	assert.Equal(t, 1, stored.Attempts)
}

func TestPaymentStorePendingAndFailures(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	store := NewPaymentStore(db, testutil.Logger(t))

	stuck := &model.CoursePayment{StudentID: 1, CourseID: 2, PaymentReference: "pay_stuck", Amount: 10}
	_, err := store.Record(ctx, stuck)
	require.NoError(t, err)
	done := &model.CoursePayment{StudentID: 1, CourseID: 3, PaymentReference: "pay_done", Amount: 10}
	_, err = store.Record(ctx, done)
	require.NoError(t, err)
	require.NoError(t, store.MarkProcessed(ctx, done.ID, 1))

	require.NoError(t, store.RecordAttemptFailure(ctx, stuck.ID, "db timeout", false))

	pending, err := store.ListPending(ctx, time.Now().Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "pay_stuck", pending[0].PaymentReference)
	assert.Equal(t, 1, pending[0].Attempts)
	assert.Equal(t, "db timeout", pending[0].LastError)

	none, err := store.ListPending(ctx, time.Now().Add(-time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, none, "rows inside the grace period are left alone")

	require.NoError(t, store.RecordAttemptFailure(ctx, stuck.ID, "course gone", true))
	pending, err = store.ListPending(ctx, time.Now().Add(time.Minute), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
