package authservice

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ichigozero/todokit/authsvc"
	"github.com/ichigozero/todokit/usersvc"
)

type AccessToken struct {
	UUID      string
	Hash      string
	ExpiresAt time.Time
}

// Tokenizer issues access tokens and verifies the ones presented back.
type Tokenizer interface {
	Generate(user usersvc.User) (AccessToken, error)
	Verify(token string) (authsvc.Subject, error)
}

// Claims is the payload of an access token. The username travels in the
// standard "sub" claim and the user id in "id".
type Claims struct {
	UserID uint64 `json:"id"`
	jwt.RegisteredClaims
}

type tokenizer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenizer(secret, issuer string, ttl time.Duration) Tokenizer {
	return &tokenizer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (t *tokenizer) Generate(user usersvc.User) (AccessToken, error) {
	id := uuid.NewString()
	now := t.now()
	expiry := now.Add(t.ttl)

	claims := Claims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    t.issuer,
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}

	hash, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return AccessToken{}, err
	}

	return AccessToken{UUID: id, Hash: hash, ExpiresAt: expiry}, nil
}

// Verify checks the signature, algorithm, issuer and expiry of token. Any
// failure is reported as authsvc.ErrInvalidCredential wrapping the cause.
func (t *tokenizer) Verify(token string) (authsvc.Subject, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		return authsvc.Subject{}, fmt.Errorf("%w: %v", authsvc.ErrInvalidCredential, err)
	}
	if !parsed.Valid {
		return authsvc.Subject{}, authsvc.ErrInvalidCredential
	}

	return authsvc.Subject{
		TokenID:   claims.ID,
		UserID:    claims.UserID,
		Username:  claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func AccessTokenExpiry() time.Duration {
	return time.Minute * 30
}
