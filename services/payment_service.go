package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sahilchouksey/course-market-api/model"
	"github.com/sahilchouksey/course-market-api/repository"
	"github.com/sahilchouksey/course-market-api/utils/logger"
	"github.com/sahilchouksey/course-market-api/utils/validation"
	"gorm.io/datatypes"
)

// PaymentSucceededEvent is what the payment provider delivers, at least once, per settled payment
type PaymentSucceededEvent struct {
	StudentID        uint    `json:"student_id" validate:"required"`
	CourseID         uint    `json:"course_id" validate:"required"`
	Amount           float64 `json:"amount" validate:"gte=0"`
	Currency         string  `json:"currency" validate:"omitempty,len=3"`
	PaymentReference string  `json:"payment_reference" validate:"required,max=100"`
}

// PaymentOutcome is returned for first and repeated deliveries alike
type PaymentOutcome struct {
	PaymentID    uint                `json:"payment_id"`
	EnrollmentID uint                `json:"enrollment_id"`
	Status       model.PaymentStatus `json:"status"`
	Duplicate    bool                `json:"duplicate"` // this reference was already processed
	Enrolled     bool                `json:"enrolled"`  // this delivery created the enrollment
}

// ReconcileReport summarizes a pass over stuck payments
type ReconcileReport struct {
	Scanned   int `json:"scanned"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// PaymentService turns confirmed payments into enrollments. Every event is first
// written to the payments inbox keyed by its reference, so redeliveries and
// crashes between the two writes are both safe to replay.
type PaymentService struct {
	payments   repository.PaymentStore
	enrollment *EnrollmentService
	validator  *validation.Validator
	log        *logger.Logger
	now        func() time.Time
}

func NewPaymentService(payments repository.PaymentStore, enrollment *EnrollmentService, baseLog *logger.Logger) *PaymentService {
	return &PaymentService{
		payments:   payments,
		enrollment: enrollment,
		validator:  validation.NewValidator(),
		log:        baseLog.With("service", "PaymentService"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// HandlePaymentSucceeded records the payment and enrolls the payer. A student who is
// already enrolled, or a reference seen before, is acknowledged as success.
func (s *PaymentService) HandlePaymentSucceeded(ctx context.Context, event PaymentSucceededEvent) (*PaymentOutcome, error) {
	if err := s.validator.ValidateStruct(event); err != nil {
		return nil, invalid("payment event: %v", validation.FormatValidationErrors(err))
	}
	if event.Currency == "" {
		event.Currency = "INR"
	}

	raw, err := json.Marshal(event)
	if err != nil {
		return nil, invalid("payment event: %v", err)
	}

	payment := &model.CoursePayment{
		StudentID:        event.StudentID,
		CourseID:         event.CourseID,
		PaymentReference: event.PaymentReference,
		Amount:           event.Amount,
		Currency:         event.Currency,
		Status:           model.PaymentStatusReceived,
		RawEvent:         datatypes.JSON(raw),
	}
	created, err := s.payments.Record(ctx, payment)
	if err != nil {
		return nil, transient("record payment", err)
	}

	if !created {
		if payment.StudentID != event.StudentID || payment.CourseID != event.CourseID {
			s.log.Warn("Payment reference reused with different purchase",
				"payment_reference", event.PaymentReference,
				"stored_course_id", payment.CourseID,
				"event_course_id", event.CourseID,
			)
			return nil, ErrPaymentReused
		}
		if payment.Status == model.PaymentStatusProcessed {
			s.log.Info("Duplicate payment delivery acknowledged", "payment_reference", payment.PaymentReference)
			return &PaymentOutcome{
				PaymentID:    payment.ID,
				EnrollmentID: derefUint(payment.EnrollmentID),
				Status:       payment.Status,
				Duplicate:    true,
			}, nil
		}
	}

	return s.process(ctx, payment)
}

func (s *PaymentService) process(ctx context.Context, payment *model.CoursePayment) (*PaymentOutcome, error) {
	result, err := s.enrollment.Enroll(ctx, EnrollRequest{
		StudentID:        payment.StudentID,
		CourseID:         payment.CourseID,
		AmountPaid:       payment.Amount,
		PaymentReference: payment.PaymentReference,
	})
	if err != nil {
		// bad references will never succeed; anything else is retried by the reconciler
		permanent := KindOf(err) == KindNotFound || KindOf(err) == KindValidation
		if ferr := s.payments.RecordAttemptFailure(ctx, payment.ID, err.Error(), permanent); ferr != nil {
			s.log.Error("Failed to record payment failure", "payment_id", payment.ID, "error", ferr)
		}
		s.log.Warn("Payment could not be turned into an enrollment",
			"payment_reference", payment.PaymentReference,
			"permanent", permanent,
			"error", err,
		)
		return nil, err
	}

	if !result.Created() {
		s.log.Info("Payer already enrolled, acknowledging payment",
			"payment_reference", payment.PaymentReference,
			"enrollment_id", result.Enrollment.ID,
		)
	}

	if err := s.payments.MarkProcessed(ctx, payment.ID, result.Enrollment.ID); err != nil {
		// the enrollment exists; the reconciler will settle the inbox row
		s.log.Warn("Failed to mark payment processed", "payment_id", payment.ID, "error", err)
	}

	return &PaymentOutcome{
		PaymentID:    payment.ID,
		EnrollmentID: result.Enrollment.ID,
		Status:       model.PaymentStatusProcessed,
		Enrolled:     result.Created(),
	}, nil
}

// ReconcilePending replays payments that stayed received for longer than grace
func (s *PaymentService) ReconcilePending(ctx context.Context, grace time.Duration, limit int) (*ReconcileReport, error) {
	pending, err := s.payments.ListPending(ctx, s.now().Add(-grace), limit)
	if err != nil {
		return nil, transient("list pending payments", err)
	}

	report := &ReconcileReport{Scanned: len(pending)}
	for i := range pending {
		if _, err := s.process(ctx, &pending[i]); err != nil {
			report.Failed++
			continue
		}
		report.Processed++
	}
	return report, nil
}

func derefUint(v *uint) uint {
	if v == nil {
		return 0
	}
	return *v
}
