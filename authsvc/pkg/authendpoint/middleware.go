package authendpoint

import (
	"context"
	"errors"
	"time"

	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/ichigozero/todokit/authsvc"
	"github.com/ichigozero/todokit/authsvc/pkg/authservice"
)

// NewAuthenticator verifies the bearer token that a transport placed under
// kitjwt.JWTContextKey, resolves it to an identity and hands that identity to
// next through the context. Every credential or identity failure is reported
// as authsvc.ErrUnauthenticated and next is not called.
func NewAuthenticator(t authservice.Tokenizer, r authservice.Resolver, logger log.Logger) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			token, ok := ctx.Value(kitjwt.JWTContextKey).(string)
			if !ok || token == "" {
				level.Debug(logger).Log("auth", "denied", "reason", "token missing")
				return nil, authsvc.ErrUnauthenticated
			}

			subject, err := t.Verify(token)
			if err != nil {
				level.Debug(logger).Log("auth", "denied", "reason", err)
				return nil, authsvc.ErrUnauthenticated
			}

			identity, err := r.Resolve(ctx, subject)
			if errors.Is(err, authsvc.ErrIdentityNotFound) {
				level.Debug(logger).Log("auth", "denied", "access_uuid", subject.TokenID, "reason", err)
				return nil, authsvc.ErrUnauthenticated
			}
			if err != nil {
				return nil, err
			}

			return next(authsvc.ContextWithIdentity(ctx, identity), request)
		}
	}
}

func LoggingMiddleware(logger log.Logger) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			defer func(begin time.Time) {
				logger.Log("transport_error", err, "took", time.Since(begin))
			}(time.Now())
			return next(ctx, request)
		}
	}
}
