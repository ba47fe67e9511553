package services

import (
	"context"
	"errors"

	"github.com/sahilchouksey/course-market-api/repository"
	"github.com/sahilchouksey/course-market-api/utils/logger"
	"gorm.io/gorm"
)

// UserRemoval is the outcome of an account removal
type UserRemoval struct {
	UserID              uint  `json:"user_id"`
	DetachedEnrollments int64 `json:"detached_enrollments"`
}

// UserService handles account moderation
type UserService struct {
	users       repository.UserStore
	enrollments repository.EnrollmentStore
	log         *logger.Logger
}

func NewUserService(users repository.UserStore, enrollments repository.EnrollmentStore, baseLog *logger.Logger) *UserService {
	return &UserService{
		users:       users,
		enrollments: enrollments,
		log:         baseLog.With("service", "UserService"),
	}
}

// RemoveUser soft-deletes the account and keeps its enrollments with a null student
// reference, so revenue and completion history survive.
func (s *UserService) RemoveUser(ctx context.Context, userID uint) (*UserRemoval, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, notFoundOr(err, ErrUserNotFound, "load user")
	}

	detached, err := s.enrollments.DetachStudent(ctx, userID)
	if err != nil {
		return nil, transient("detach enrollments", err)
	}

	deleted, err := s.users.SoftDelete(ctx, userID)
	if err != nil {
		return nil, transient("delete user", err)
	}
	if !deleted {
		return nil, ErrUserNotFound
	}

	s.log.Info("User removed", "user_id", userID, "detached_enrollments", detached)
	return &UserRemoval{UserID: userID, DetachedEnrollments: detached}, nil
}

// notFoundOr maps gorm's not-found to missing and anything else to a transient failure
func notFoundOr(err error, missing error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return missing
	}
	return transient(op, err)
}
