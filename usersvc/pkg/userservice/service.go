package userservice

import (
	"context"
	"errors"
	"strings"

	"github.com/go-kit/log"
	"github.com/ichigozero/todokit/usersvc"
	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	CreateUser(ctx context.Context, reg usersvc.Registration) (usersvc.User, error)
	Authenticate(ctx context.Context, username, password string) (usersvc.User, error)
	User(ctx context.Context, id uint64) (usersvc.User, error)
}

func New(users usersvc.UserRepository, cost int, logger log.Logger) Service {
	var svc Service
	{
		svc = NewBasicService(users, cost)
		svc = LoggingMiddleware(logger)(svc)
	}
	return svc
}

type basicService struct {
	users usersvc.UserRepository
	cost  int
}

// NewBasicService returns a Service hashing passwords with the given bcrypt
// cost. A cost of zero selects bcrypt.DefaultCost.
func NewBasicService(users usersvc.UserRepository, cost int) Service {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return basicService{users: users, cost: cost}
}

func (s basicService) CreateUser(ctx context.Context, reg usersvc.Registration) (usersvc.User, error) {
	username := strings.TrimSpace(reg.Username)
	if username == "" || reg.Password == "" {
		return usersvc.User{}, usersvc.ErrInvalidArgument
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cost)
	if err != nil {
		return usersvc.User{}, err
	}

	return s.users.Create(ctx, usersvc.User{
		Username:       username,
		Email:          reg.Email,
		FirstName:      reg.FirstName,
		LastName:       reg.LastName,
		HashedPassword: string(hash),
		IsActive:       true,
	})
}

func (s basicService) Authenticate(ctx context.Context, username, password string) (usersvc.User, error) {
	if username == "" || password == "" {
		return usersvc.User{}, usersvc.ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, usersvc.ErrUserNotFound) {
		return usersvc.User{}, usersvc.ErrInvalidCredentials
	}
	if err != nil {
		return usersvc.User{}, err
	}

	if !user.IsActive {
		return usersvc.User{}, usersvc.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) != nil {
		return usersvc.User{}, usersvc.ErrInvalidCredentials
	}

	return user, nil
}

func (s basicService) User(ctx context.Context, id uint64) (usersvc.User, error) {
	if id == 0 {
		return usersvc.User{}, usersvc.ErrInvalidArgument
	}
	return s.users.Find(ctx, id)
}
