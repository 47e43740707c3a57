package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"item-service/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

var (
	ErrInvalidToken   = errors.New("tokens: invalid token")
	ErrWrongTokenType = errors.New("tokens: wrong token type")
	ErrRevoked        = errors.New("tokens: refresh token revoked")
)

// Pair is one set of session credentials: a short-lived access token used
// per request and a longer-lived refresh token used to mint new pairs.
type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Claims are the signed session claims. Refresh tokens additionally carry
// a jti so individual tokens can be revoked.
type Claims struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// Issuer signs and validates HS256 session credentials. The only
// server-side state is the refresh denylist.
type Issuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	denylist   *Denylist
}

func NewIssuer(secret, issuer string, accessTTL, refreshTTL time.Duration, denylist *Denylist) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		denylist:   denylist,
	}
}

// Issue produces a fresh credential pair for an authenticated user.
func (i *Issuer) Issue(user *store.User) (Pair, error) {
	access, err := i.sign(user.ID, user.Email, user.Username, typeAccess, i.accessTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := i.sign(user.ID, user.Email, user.Username, typeRefresh, i.refreshTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return Pair{Access: access, Refresh: refresh}, nil
}

// VerifyAccess validates an access token and returns its claims.
func (i *Issuer) VerifyAccess(tokenString string) (*Claims, error) {
	claims, err := i.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != typeAccess {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

// Refresh rotates a refresh token: the old token is revoked and a new
// pair is issued. A revoked or otherwise invalid token yields an error.
func (i *Issuer) Refresh(ctx context.Context, refreshToken string) (Pair, error) {
	claims, err := i.parse(refreshToken)
	if err != nil {
		return Pair{}, err
	}
	if claims.TokenType != typeRefresh {
		return Pair{}, ErrWrongTokenType
	}

	revoked, err := i.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return Pair{}, fmt.Errorf("check denylist: %w", err)
	}
	if revoked {
		return Pair{}, ErrRevoked
	}

	if err := i.denylist.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
		return Pair{}, fmt.Errorf("revoke rotated token: %w", err)
	}

	return i.Issue(&store.User{
		ID:       claims.Subject,
		Email:    claims.Email,
		Username: claims.Username,
	})
}

// Revoke denylists a refresh token until its natural expiry. Invalid
// tokens are ignored; revocation is best-effort by design.
func (i *Issuer) Revoke(ctx context.Context, refreshToken string) error {
	claims, err := i.parse(refreshToken)
	if err != nil || claims.TokenType != typeRefresh {
		return nil
	}
	return i.denylist.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
}

func (i *Issuer) sign(sub, email, username, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()

	claims := Claims{
		Email:     email,
		Username:  username,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if tokenType == typeRefresh {
		claims.ID = uuid.NewString()
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

func (i *Issuer) parse(tokenString string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(
		tokenString,
		&claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return i.secret, nil
		},
		jwt.WithIssuer(i.issuer),
		// exp is read back in Refresh/Revoke, so a token without it is
		// rejected here rather than handled later.
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return &claims, nil
}
