package gorm

import (
	"context"
	"errors"

	"github.com/ichigozero/todokit/usersvc"
	libgorm "gorm.io/gorm"
)

type userRepository struct {
	db *libgorm.DB
}

func NewUserRepository(db *libgorm.DB) usersvc.UserRepository {
	return &userRepository{db}
}

func (u *userRepository) Create(ctx context.Context, user usersvc.User) (usersvc.User, error) {
	err := u.db.WithContext(ctx).Create(&user).Error
	if errors.Is(err, libgorm.ErrDuplicatedKey) {
		return usersvc.User{}, usersvc.ErrUserExists
	}

	return user, err
}

func (u *userRepository) Find(ctx context.Context, id uint64) (usersvc.User, error) {
	var user usersvc.User
	err := u.db.WithContext(ctx).First(&user, id).Error

	return user, notFound(err)
}

func (u *userRepository) FindByUsername(ctx context.Context, username string) (usersvc.User, error) {
	var user usersvc.User
	err := u.db.WithContext(ctx).Where("username = ?", username).First(&user).Error

	return user, notFound(err)
}

func notFound(err error) error {
	if errors.Is(err, libgorm.ErrRecordNotFound) {
		return usersvc.ErrUserNotFound
	}
	return err
}
