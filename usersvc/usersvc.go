package usersvc

import (
	"context"
	"errors"
)

type User struct {
	ID             uint64 `json:"id" gorm:"primaryKey"`
	Username       string `json:"username" gorm:"uniqueIndex;not null"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	HashedPassword string `json:"-" gorm:"not null"`
	IsActive       bool   `json:"is_active" gorm:"not null;default:true"`
}

func (User) TableName() string { return "users" }

// Registration carries the fields a new account is created from. Password is
// plain text and is hashed before it reaches the repository.
type Registration struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
}

type UserRepository interface {
	Create(ctx context.Context, u User) (User, error)
	Find(ctx context.Context, id uint64) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
}

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("incorrect username or password")
)
