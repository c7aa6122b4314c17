package authservice

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ichigozero/todokit/authsvc"
	"github.com/ichigozero/todokit/usersvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alice = usersvc.User{ID: 7, Username: "alice", IsActive: true}

func fixedTokenizer(secret string, at time.Time) *tokenizer {
	return &tokenizer{
		secret: []byte(secret),
		issuer: "todokit",
		ttl:    30 * time.Minute,
		now:    func() time.Time { return at },
	}
}

func TestTokenizer_GenerateAndVerify(t *testing.T) {
	t.Parallel()

	tk := NewTokenizer("super-secret", "todokit", time.Hour)

	at, err := tk.Generate(alice)
	require.NoError(t, err)
	assert.NotEmpty(t, at.UUID)
	assert.NotEmpty(t, at.Hash)

	s, err := tk.Verify(at.Hash)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), s.UserID)
	assert.Equal(t, "alice", s.Username)
	assert.Equal(t, at.UUID, s.TokenID)
	assert.WithinDuration(t, at.ExpiresAt, s.ExpiresAt, time.Second)
}

func TestTokenizer_VerifyExpired(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer := fixedTokenizer("secret", issuedAt)
	at, err := issuer.Generate(alice)
	require.NoError(t, err)

	verifier := fixedTokenizer("secret", issuedAt.Add(31*time.Minute))
	_, err = verifier.Verify(at.Hash)
	require.ErrorIs(t, err, authsvc.ErrInvalidCredential)
	assert.ErrorContains(t, err, "expired")
}

func TestTokenizer_VerifyJustBeforeExpiry(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	at, err := fixedTokenizer("secret", issuedAt).Generate(alice)
	require.NoError(t, err)

	_, err = fixedTokenizer("secret", issuedAt.Add(29*time.Minute)).Verify(at.Hash)
	assert.NoError(t, err)
}

func TestTokenizer_VerifyWrongSecret(t *testing.T) {
	t.Parallel()

	at, err := NewTokenizer("right-secret", "todokit", time.Hour).Generate(alice)
	require.NoError(t, err)

	_, err = NewTokenizer("wrong-secret", "todokit", time.Hour).Verify(at.Hash)
	assert.ErrorIs(t, err, authsvc.ErrInvalidCredential)
}

func TestTokenizer_VerifyWrongIssuer(t *testing.T) {
	t.Parallel()

	at, err := NewTokenizer("secret", "someone-else", time.Hour).Generate(alice)
	require.NoError(t, err)

	_, err = NewTokenizer("secret", "todokit", time.Hour).Verify(at.Hash)
	assert.ErrorIs(t, err, authsvc.ErrInvalidCredential)
}

func TestTokenizer_VerifyMalformed(t *testing.T) {
	t.Parallel()

	tk := NewTokenizer("k", "todokit", time.Hour)
	for _, token := range []string{"", "not.a.jwt", "abc", "a.b.c.d"} {
		_, err := tk.Verify(token)
		assert.ErrorIs(t, err, authsvc.ErrInvalidCredential, "token %q", token)
	}
}

func TestTokenizer_VerifyRejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	claims := Claims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "todokit",
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tk := NewTokenizer("secret", "todokit", time.Hour)
	for _, token := range []string{hs512, none} {
		_, err := tk.Verify(token)
		assert.ErrorIs(t, err, authsvc.ErrInvalidCredential)
	}
}

func TestTokenizer_VerifyRequiresExpiry(t *testing.T) {
	t.Parallel()

	claims := Claims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:  "todokit",
			Subject: "alice",
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenizer("secret", "todokit", time.Hour).Verify(token)
	assert.ErrorIs(t, err, authsvc.ErrInvalidCredential)
}
