package repository

import (
	"context"

	"github.com/sahilchouksey/course-market-api/model"
	"github.com/sahilchouksey/course-market-api/utils/logger"
	"gorm.io/gorm"
)

type CertificateStore interface {
	Create(ctx context.Context, certificate *model.Certificate) error
	FindByStudentAndCourse(ctx context.Context, studentID, courseID uint) (*model.Certificate, error)
	FindByNumber(ctx context.Context, number string) (*model.Certificate, error)
}

type certificateStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCertificateStore(db *gorm.DB, baseLog *logger.Logger) CertificateStore {
	return &certificateStore{db: db, log: baseLog.With("repo", "CertificateStore")}
}

func (r *certificateStore) Create(ctx context.Context, certificate *model.Certificate) error {
	return r.db.WithContext(ctx).Create(certificate).Error
}

func (r *certificateStore) FindByStudentAndCourse(ctx context.Context, studentID, courseID uint) (*model.Certificate, error) {
	var certificate model.Certificate
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&certificate).Error; err != nil {
		return nil, err
	}
	return &certificate, nil
}

func (r *certificateStore) FindByNumber(ctx context.Context, number string) (*model.Certificate, error) {
	var certificate model.Certificate
	if err := r.db.WithContext(ctx).
		Where("certificate_number = ?", number).
		First(&certificate).Error; err != nil {
		return nil, err
	}
	return &certificate, nil
}
