package authservice

import (
	"context"

	"github.com/go-kit/log"
	"github.com/ichigozero/todokit/usersvc"
)

type Middleware func(Service) Service

func LoggingMiddleware(logger log.Logger) Middleware {
	return func(next Service) Service {
		return loggingMiddleware{logger, next}
	}
}

type loggingMiddleware struct {
	logger log.Logger
	next   Service
}

func (mw loggingMiddleware) Login(ctx context.Context, username, password string) (t AccessToken, err error) {
	defer func() {
		mw.logger.Log("method", "Login", "username", username, "access_uuid", t.UUID, "err", err)
	}()
	return mw.next.Login(ctx, username, password)
}

func (mw loggingMiddleware) Register(ctx context.Context, reg usersvc.Registration) (u usersvc.User, err error) {
	defer func() {
		mw.logger.Log("method", "Register", "username", reg.Username, "user_id", u.ID, "err", err)
	}()
	return mw.next.Register(ctx, reg)
}
