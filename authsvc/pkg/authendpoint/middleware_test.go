package authendpoint

import (
	"context"
	"errors"
	"testing"
	"time"

	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/log"
	"github.com/ichigozero/todokit/authsvc"
	"github.com/ichigozero/todokit/authsvc/pkg/authservice"
	"github.com/ichigozero/todokit/usersvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolverFunc func(context.Context, authsvc.Subject) (authsvc.Identity, error)

func (f resolverFunc) Resolve(ctx context.Context, s authsvc.Subject) (authsvc.Identity, error) {
	return f(ctx, s)
}

func TestAuthenticator(t *testing.T) {
	t.Parallel()

	tk := authservice.NewTokenizer("secret", "todokit", time.Hour)
	token, err := tk.Generate(usersvc.User{ID: 7, Username: "alice"})
	require.NoError(t, err)
	foreign, err := authservice.NewTokenizer("other", "todokit", time.Hour).Generate(usersvc.User{ID: 7, Username: "alice"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		ctx   context.Context
		allow bool
	}{
		{"no token", context.Background(), false},
		{"empty token", context.WithValue(context.Background(), kitjwt.JWTContextKey, ""), false},
		{"garbage token", context.WithValue(context.Background(), kitjwt.JWTContextKey, "garbage"), false},
		{"foreign key", context.WithValue(context.Background(), kitjwt.JWTContextKey, foreign.Hash), false},
		{"valid token", context.WithValue(context.Background(), kitjwt.JWTContextKey, token.Hash), true},
	}

	for _, tt := range tests {
		var (
			called bool
			got    authsvc.Identity
		)
		next := func(ctx context.Context, _ interface{}) (interface{}, error) {
			called = true
			got, _ = authsvc.IdentityFromContext(ctx)
			return "ok", nil
		}

		mw := NewAuthenticator(tk, authservice.NewClaimsResolver(), log.NewNopLogger())
		resp, err := mw(next)(tt.ctx, nil)

		if !tt.allow {
			assert.ErrorIs(t, err, authsvc.ErrUnauthenticated, tt.name)
			assert.Nil(t, resp, tt.name)
			assert.False(t, called, tt.name)
			continue
		}
		require.NoError(t, err, tt.name)
		assert.Equal(t, "ok", resp)
		assert.True(t, called)
		assert.Equal(t, authsvc.Identity{ID: 7, Username: "alice"}, got)
	}
}

func TestAuthenticator_UnknownIdentity(t *testing.T) {
	t.Parallel()

	tk := authservice.NewTokenizer("secret", "todokit", time.Hour)
	token, err := tk.Generate(usersvc.User{ID: 7, Username: "alice"})
	require.NoError(t, err)

	resolver := resolverFunc(func(context.Context, authsvc.Subject) (authsvc.Identity, error) {
		return authsvc.Identity{}, authsvc.ErrIdentityNotFound
	})

	called := false
	next := func(context.Context, interface{}) (interface{}, error) {
		called = true
		return nil, nil
	}

	ctx := context.WithValue(context.Background(), kitjwt.JWTContextKey, token.Hash)
	_, err = NewAuthenticator(tk, resolver, log.NewNopLogger())(next)(ctx, nil)
	assert.ErrorIs(t, err, authsvc.ErrUnauthenticated)
	assert.False(t, called)
}

func TestAuthenticator_ResolverFailure(t *testing.T) {
	t.Parallel()

	tk := authservice.NewTokenizer("secret", "todokit", time.Hour)
	token, err := tk.Generate(usersvc.User{ID: 7, Username: "alice"})
	require.NoError(t, err)

	boom := errors.New("database is down")
	resolver := resolverFunc(func(context.Context, authsvc.Subject) (authsvc.Identity, error) {
		return authsvc.Identity{}, boom
	})

	called := false
	next := func(context.Context, interface{}) (interface{}, error) {
		called = true
		return nil, nil
	}

	ctx := context.WithValue(context.Background(), kitjwt.JWTContextKey, token.Hash)
	_, err = NewAuthenticator(tk, resolver, log.NewNopLogger())(next)(ctx, nil)
	assert.ErrorIs(t, err, boom)
	assert.False(t, called)
}
