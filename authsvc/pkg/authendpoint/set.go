package authendpoint

import (
	"context"
	"time"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/ratelimit"
	"github.com/go-kit/log"
	"github.com/ichigozero/todokit/authsvc/pkg/authservice"
	"github.com/ichigozero/todokit/usersvc"
)

type Set struct {
	LoginEndpoint    endpoint.Endpoint
	RegisterEndpoint endpoint.Endpoint
}

func New(svc authservice.Service, limiter ratelimit.Allower, logger log.Logger) Set {
	var loginEndpoint endpoint.Endpoint
	{
		loginEndpoint = MakeLoginEndpoint(svc)
		loginEndpoint = ratelimit.NewErroringLimiter(limiter)(loginEndpoint)
		loginEndpoint = LoggingMiddleware(log.With(logger, "method", "Login"))(loginEndpoint)
	}

	var registerEndpoint endpoint.Endpoint
	{
		registerEndpoint = MakeRegisterEndpoint(svc)
		registerEndpoint = ratelimit.NewErroringLimiter(limiter)(registerEndpoint)
		registerEndpoint = LoggingMiddleware(log.With(logger, "method", "Register"))(registerEndpoint)
	}

	return Set{
		LoginEndpoint:    loginEndpoint,
		RegisterEndpoint: registerEndpoint,
	}
}

func MakeLoginEndpoint(s authservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(LoginRequest)
		t, err := s.Login(ctx, req.Username, req.Password)

		return LoginResponse{AccessToken: t.Hash, TokenType: "bearer", ExpiresAt: t.ExpiresAt, Err: err}, nil
	}
}

func MakeRegisterEndpoint(s authservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(RegisterRequest)
		u, err := s.Register(ctx, usersvc.Registration{
			Username:  req.Username,
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Password:  req.Password,
		})

		return RegisterResponse{User: u, Err: err}, nil
	}
}

var (
	_ endpoint.Failer = LoginResponse{}
	_ endpoint.Failer = RegisterResponse{}
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"-"`
	Err         error     `json:"-"`
}

func (r LoginResponse) Failed() error { return r.Err }

type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

type RegisterResponse struct {
	User usersvc.User `json:"user"`
	Err  error        `json:"-"`
}

func (r RegisterResponse) Failed() error { return r.Err }
