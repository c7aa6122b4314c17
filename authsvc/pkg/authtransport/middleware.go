package authtransport

import (
	"context"
	"net/http"

	kitjwt "github.com/go-kit/kit/auth/jwt"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/securecookie"
)

const CookieName = "access_token"

// CookieToContext is a ServerBefore func that moves the token stored in the
// access_token cookie into the context, unless an Authorization header
// already put one there. It must run after kitjwt.HTTPToContext.
func CookieToContext(cookies *securecookie.SecureCookie) httptransport.RequestFunc {
	return func(ctx context.Context, r *http.Request) context.Context {
		if _, ok := ctx.Value(kitjwt.JWTContextKey).(string); ok {
			return ctx
		}
		if cookies == nil {
			return ctx
		}

		c, err := r.Cookie(CookieName)
		if err != nil {
			return ctx
		}

		var token string
		if err := cookies.Decode(CookieName, c.Value, &token); err != nil {
			return ctx
		}

		return context.WithValue(ctx, kitjwt.JWTContextKey, token)
	}
}
