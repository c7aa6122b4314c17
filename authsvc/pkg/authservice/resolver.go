package authservice

import (
	"context"
	"errors"

	"github.com/ichigozero/todokit/authsvc"
	"github.com/ichigozero/todokit/usersvc"
	"github.com/ichigozero/todokit/usersvc/pkg/userservice"
)

// Resolver turns a verified token subject into the identity that scopes
// storage operations.
type Resolver interface {
	Resolve(ctx context.Context, s authsvc.Subject) (authsvc.Identity, error)
}

type claimsResolver struct{}

// NewClaimsResolver returns a Resolver that trusts the identity embedded in
// the token and performs no lookup.
func NewClaimsResolver() Resolver {
	return claimsResolver{}
}

func (claimsResolver) Resolve(_ context.Context, s authsvc.Subject) (authsvc.Identity, error) {
	if s.UserID == 0 || s.Username == "" {
		return authsvc.Identity{}, authsvc.ErrIdentityNotFound
	}
	return authsvc.Identity{ID: s.UserID, Username: s.Username}, nil
}

type userResolver struct {
	claims Resolver
	users  userservice.Service
}

// NewUserResolver returns a Resolver that additionally requires the user to
// still exist, be active and carry the username the token was issued for.
func NewUserResolver(users userservice.Service) Resolver {
	return userResolver{claims: NewClaimsResolver(), users: users}
}

func (r userResolver) Resolve(ctx context.Context, s authsvc.Subject) (authsvc.Identity, error) {
	id, err := r.claims.Resolve(ctx, s)
	if err != nil {
		return authsvc.Identity{}, err
	}

	user, err := r.users.User(ctx, id.ID)
	if errors.Is(err, usersvc.ErrUserNotFound) {
		return authsvc.Identity{}, authsvc.ErrIdentityNotFound
	}
	if err != nil {
		return authsvc.Identity{}, err
	}

	if !user.IsActive || user.Username != id.Username {
		return authsvc.Identity{}, authsvc.ErrIdentityNotFound
	}

	return id, nil
}
