package tokens

import (
	"context"
	"testing"
	"time"

	"item-service/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()

	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	return NewIssuer(
		"test-secret",
		"item-service",
		15*time.Minute,
		7*24*time.Hour,
		NewDenylist(client),
	)
}

func testUser() *store.User {
	return &store.User{
		ID:       "user-1",
		Email:    "a@b.com",
		Username: "a",
	}
}

func TestIssueAndVerifyAccess(t *testing.T) {
	issuer := newTestIssuer(t)

	pair, err := issuer.Issue(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)
	assert.NotEqual(t, pair.Access, pair.Refresh)

	claims, err := issuer.VerifyAccess(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "a", claims.Username)
}

func TestVerifyAccessRejectsRefreshToken(t *testing.T) {
	issuer := newTestIssuer(t)

	pair, err := issuer.Issue(testUser())
	require.NoError(t, err)

	_, err = issuer.VerifyAccess(pair.Refresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestVerifyAccessRejectsGarbage(t *testing.T) {
	issuer := newTestIssuer(t)

	_, err := issuer.VerifyAccess("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyAccessRejectsForeignSignature(t *testing.T) {
	issuer := newTestIssuer(t)
	other := newTestIssuer(t)
	other.secret = []byte("different-secret")

	pair, err := other.Issue(testUser())
	require.NoError(t, err)

	_, err = issuer.VerifyAccess(pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshRotation(t *testing.T) {
	issuer := newTestIssuer(t)
	ctx := context.Background()

	pair, err := issuer.Issue(testUser())
	require.NoError(t, err)

	next, err := issuer.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	require.NotEmpty(t, next.Access)
	require.NotEmpty(t, next.Refresh)

	claims, err := issuer.VerifyAccess(next.Access)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)

	// the rotated-out token is single-use
	_, err = issuer.Refresh(ctx, pair.Refresh)
	assert.ErrorIs(t, err, ErrRevoked)

	// the new one still works
	_, err = issuer.Refresh(ctx, next.Refresh)
	assert.NoError(t, err)
}

func TestRefreshRejectsTokenWithoutExpiry(t *testing.T) {
	issuer := newTestIssuer(t)

	// correctly signed, right type and issuer, but no exp claim
	claims := Claims{
		TokenType: typeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:  "item-service",
			Subject: "user-1",
			ID:      "some-jti",
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(issuer.secret)
	require.NoError(t, err)

	_, err = issuer.Refresh(context.Background(), raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	assert.NoError(t, issuer.Revoke(context.Background(), raw))
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	issuer := newTestIssuer(t)

	pair, err := issuer.Issue(testUser())
	require.NoError(t, err)

	_, err = issuer.Refresh(context.Background(), pair.Access)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestRevoke(t *testing.T) {
	issuer := newTestIssuer(t)
	ctx := context.Background()

	pair, err := issuer.Issue(testUser())
	require.NoError(t, err)

	require.NoError(t, issuer.Revoke(ctx, pair.Refresh))

	_, err = issuer.Refresh(ctx, pair.Refresh)
	assert.ErrorIs(t, err, ErrRevoked)

	// revoking junk is a no-op
	assert.NoError(t, issuer.Revoke(ctx, "not-a-jwt"))
}
