package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sahilchouksey/course-market-api/model"
	"github.com/sahilchouksey/course-market-api/repository"
	"github.com/sahilchouksey/course-market-api/utils/logger"
	"gorm.io/gorm"
)

// CertificateService issues one completion certificate per (student, course)
type CertificateService struct {
	certificates repository.CertificateStore
	enrollments  repository.EnrollmentStore
	log          *logger.Logger
	now          func() time.Time
}

func NewCertificateService(certificates repository.CertificateStore, enrollments repository.EnrollmentStore, baseLog *logger.Logger) *CertificateService {
	return &CertificateService{
		certificates: certificates,
		enrollments:  enrollments,
		log:          baseLog.With("service", "CertificateService"),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// IssueCertificate returns the existing certificate or creates one for a completed enrollment
func (s *CertificateService) IssueCertificate(ctx context.Context, studentID, courseID uint) (*model.Certificate, error) {
	enrollment, err := s.enrollments.FindByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotEnrolled
		}
		return nil, transient("load enrollment", err)
	}

	existing, err := s.certificates.FindByStudentAndCourse(ctx, studentID, courseID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, transient("look up certificate", err)
	}

	if !enrollment.IsCompleted() || enrollment.Percentage < 100 {
		return nil, ErrCourseNotCompleted
	}

	certificate := &model.Certificate{
		StudentID:         studentID,
		CourseID:          courseID,
		EnrollmentID:      enrollment.ID,
		CertificateNumber: uuid.NewString(),
		IssuedAt:          s.now(),
	}
	if err := s.certificates.Create(ctx, certificate); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// issued concurrently
			existing, ferr := s.certificates.FindByStudentAndCourse(ctx, studentID, courseID)
			if ferr != nil {
				return nil, transient("load certificate", ferr)
			}
			return existing, nil
		}
		return nil, transient("create certificate", err)
	}

	s.log.Info("Certificate issued", "certificate_number", certificate.CertificateNumber, "enrollment_id", enrollment.ID)
	return certificate, nil
}

// Verify looks a certificate up by its public number
func (s *CertificateService) Verify(ctx context.Context, number string) (*model.Certificate, error) {
	certificate, err := s.certificates.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCertificateNotFound
		}
		return nil, transient("load certificate", err)
	}
	return certificate, nil
}
