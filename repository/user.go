package repository

import (
	"context"

	"github.com/sahilchouksey/course-market-api/model"
	"github.com/sahilchouksey/course-market-api/utils/logger"
	"gorm.io/gorm"
)

type UserStore interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
	// SoftDelete removes the account and bumps its token version so issued tokens stop working
	SoftDelete(ctx context.Context, id uint) (bool, error)
}

type userStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserStore(db *gorm.DB, baseLog *logger.Logger) UserStore {
	return &userStore{db: db, log: baseLog.With("repo", "UserStore")}
}

func (r *userStore) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userStore) SoftDelete(ctx context.Context, id uint) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.User{}).
			Where("id = ?", id).
			UpdateColumn("token_version", gorm.Expr("token_version + 1")).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}
