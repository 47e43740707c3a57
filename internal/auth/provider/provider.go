package provider

import (
	"context"
	"errors"

	"item-service/internal/auth"
)

// ErrEmailMissing is returned when the provider payload carries no email.
var ErrEmailMissing = errors.New("email not provided")

// UpstreamError carries a non-2xx provider response so handlers can
// surface the provider's own details to the client.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return "provider rejected the token"
}

// OAuthProvider defines the contract every external auth provider
// must implement. Implementations return identity facts only and
// must not perform user creation, linking, or session management.
type OAuthProvider interface {
	// Name returns the provider identifier (e.g. "google").
	Name() string

	// VerifyAccessToken resolves a client-supplied access token into a
	// normalized identity by calling the provider's userinfo endpoint.
	// A rejected token yields an *UpstreamError; a payload without an
	// email yields ErrEmailMissing.
	VerifyAccessToken(ctx context.Context, accessToken string) (*auth.Identity, error)

	// AuthCodeURL returns the OAuth authorization URL for the
	// redirect-based flow. State and PKCE parameters are provided by
	// the caller.
	AuthCodeURL(state string, codeChallenge string) string

	// ExchangeCode exchanges the authorization code for provider
	// credentials and returns a normalized identity plus the provider
	// access token. No auth decisions are made here.
	ExchangeCode(
		ctx context.Context,
		code string,
		codeVerifier string,
	) (*auth.Identity, string, error)
}
