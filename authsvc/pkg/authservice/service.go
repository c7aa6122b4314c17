package authservice

import (
	"context"

	"github.com/go-kit/log"
	"github.com/ichigozero/todokit/usersvc"
	"github.com/ichigozero/todokit/usersvc/pkg/userservice"
)

type Service interface {
	Login(ctx context.Context, username, password string) (AccessToken, error)
	Register(ctx context.Context, reg usersvc.Registration) (usersvc.User, error)
}

func New(t Tokenizer, users userservice.Service, logger log.Logger) Service {
	var svc Service
	{
		svc = NewBasicService(t, users)
		svc = LoggingMiddleware(logger)(svc)
	}
	return svc
}

type basicService struct {
	tokenizer Tokenizer
	users     userservice.Service
}

func NewBasicService(t Tokenizer, users userservice.Service) Service {
	return &basicService{tokenizer: t, users: users}
}

func (s *basicService) Login(ctx context.Context, username, password string) (AccessToken, error) {
	user, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		return AccessToken{}, err
	}

	return s.tokenizer.Generate(user)
}

func (s *basicService) Register(ctx context.Context, reg usersvc.Registration) (usersvc.User, error) {
	return s.users.CreateUser(ctx, reg)
}
