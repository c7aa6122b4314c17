package authsvc

import (
	"context"
	"errors"
	"time"
)

// Subject is what a verified access token asserts about its bearer.
type Subject struct {
	TokenID   string
	UserID    uint64
	Username  string
	ExpiresAt time.Time
}

// Identity is the per-request owner key for ownership-scoped operations.
type Identity struct {
	ID       uint64
	Username string
}

type contextKey string

const IdentityContextKey contextKey = "Identity"

func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(IdentityContextKey).(Identity)
	return id, ok
}

var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrIdentityNotFound  = errors.New("identity not found")
	ErrUnauthenticated   = errors.New("could not validate credentials")
)
