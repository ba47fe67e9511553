package repository

import (
	"context"
	"time"

	"github.com/sahilchouksey/course-market-api/model"
	"github.com/sahilchouksey/course-market-api/utils/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentStore is the inbox of confirmed provider payments
type PaymentStore interface {
	// Record inserts the payment unless its reference is already known. On return
	// payment holds the stored row; created reports whether this call inserted it.
	Record(ctx context.Context, payment *model.CoursePayment) (created bool, err error)
	FindByReference(ctx context.Context, reference string) (*model.CoursePayment, error)
	MarkProcessed(ctx context.Context, paymentID, enrollmentID uint) error
	RecordAttemptFailure(ctx context.Context, paymentID uint, reason string, permanent bool) error
	ListPending(ctx context.Context, olderThan time.Time, limit int) ([]model.CoursePayment, error)
}

type paymentStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPaymentStore(db *gorm.DB, baseLog *logger.Logger) PaymentStore {
	return &paymentStore{db: db, log: baseLog.With("repo", "PaymentStore")}
}

func (r *paymentStore) Record(ctx context.Context, payment *model.CoursePayment) (bool, error) {
	if payment.Status == "" {
		payment.Status = model.PaymentStatusReceived
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_reference"}},
			DoNothing: true,
		}).
		Create(payment)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	existing, err := r.FindByReference(ctx, payment.PaymentReference)
	if err != nil {
		return false, err
	}
	*payment = *existing
	return false, nil
}

func (r *paymentStore) FindByReference(ctx context.Context, reference string) (*model.CoursePayment, error) {
	var payment model.CoursePayment
	if err := r.db.WithContext(ctx).
		Where("payment_reference = ?", reference).
		First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentStore) MarkProcessed(ctx context.Context, paymentID, enrollmentID uint) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&model.CoursePayment{}).
		Where("id = ?", paymentID).
		Updates(map[string]interface{}{
			"status":        model.PaymentStatusProcessed,
			"enrollment_id": enrollmentID,
			"processed_at":  now,
			"attempts":      gorm.Expr("attempts + 1"),
			"last_error":    "",
		}).Error
}

func (r *paymentStore) RecordAttemptFailure(ctx context.Context, paymentID uint, reason string, permanent bool) error {
	updates := map[string]interface{}{
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": reason,
	}
	if permanent {
		updates["status"] = model.PaymentStatusFailed
	}
	return r.db.WithContext(ctx).
		Model(&model.CoursePayment{}).
		Where("id = ? AND status = ?", paymentID, model.PaymentStatusReceived).
		Updates(updates).Error
}

// ListPending returns received rows created before olderThan, oldest first
func (r *paymentStore) ListPending(ctx context.Context, olderThan time.Time, limit int) ([]model.CoursePayment, error) {
	payments := []model.CoursePayment{}
	q := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.PaymentStatusReceived, olderThan).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}
