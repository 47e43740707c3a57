package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"item-service/internal/auth"
	"item-service/internal/auth/provider"
	"item-service/internal/logger"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const (
	providerName       = "google"
	defaultUserinfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
)

type Provider struct {
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
	userinfoURL string
	httpClient  *http.Client
}

func New(
	ctx context.Context,
	clientID string,
	clientSecret string,
	redirectURL string,
	userinfoURL string,
) (*Provider, error) {

	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("google oauth config missing required fields")
	}

	oidcProvider, err := oidc.NewProvider(ctx, "https://accounts.google.com")
	if err != nil {
		return nil, fmt.Errorf("failed to init google oidc provider: %w", err)
	}

	verifier := oidcProvider.Verifier(&oidc.Config{
		ClientID: clientID,
	})

	oauthCfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     oidcProvider.Endpoint(),
		Scopes: []string{
			oidc.ScopeOpenID,
			"profile",
			"email",
		},
	}

	if userinfoURL == "" {
		userinfoURL = defaultUserinfoURL
	}

	return &Provider{
		oauthConfig: oauthCfg,
		verifier:    verifier,
		userinfoURL: userinfoURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Name returns the provider identifier used by the registry.
func (p *Provider) Name() string {
	return providerName
}

// VerifyAccessToken calls Google's userinfo endpoint with the supplied
// access token as a bearer credential and returns the identity it proves.
func (p *Provider) VerifyAccessToken(
	ctx context.Context,
	accessToken string,
) (*auth.Identity, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userinfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("google userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("google userinfo read failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &provider.UpstreamError{
			Status: resp.StatusCode,
			Body:   string(body),
		}
	}

	var profile map[string]any
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("google userinfo parse failed: %w", err)
	}

	email, _ := profile["email"].(string)
	if email == "" {
		return nil, provider.ErrEmailMissing
	}
	sub, _ := profile["sub"].(string)
	verified, _ := profile["email_verified"].(bool)

	logger.Info("google userinfo verified", map[string]any{
		"subject_present": sub != "",
		"email_verified":  verified,
	})

	return &auth.Identity{
		Provider:       providerName,
		ProviderUserID: sub,
		Email:          email,
		EmailVerified:  verified,
		Profile:        profile,
	}, nil
}

// AuthCodeURL builds the OAuth authorization URL with PKCE parameters.
func (p *Provider) AuthCodeURL(state string, codeChallenge string) string {
	return p.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// ExchangeCode exchanges the authorization code, verifies the returned
// id_token and returns the normalized identity plus the provider access
// token. No users or sessions are touched here.
func (p *Provider) ExchangeCode(
	ctx context.Context,
	code string,
	codeVerifier string,
) (*auth.Identity, string, error) {

	token, err := p.oauthConfig.Exchange(
		ctx,
		code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		return nil, "", fmt.Errorf("google token exchange failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, "", errors.New("google did not return id_token")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, "", fmt.Errorf("google id_token verification failed: %w", err)
	}

	var profile map[string]any
	if err := idToken.Claims(&profile); err != nil {
		return nil, "", fmt.Errorf("google id_token claims parse failed: %w", err)
	}

	sub, _ := profile["sub"].(string)
	email, _ := profile["email"].(string)
	verified, _ := profile["email_verified"].(bool)

	if sub == "" || email == "" {
		return nil, "", errors.New("google id_token missing required claims")
	}

	logger.Info("google oidc verified", map[string]any{
		"issuer":          idToken.Issuer,
		"subject_present": sub != "",
		"email_verified":  verified,
		"audience":        idToken.Audience,
		"expiry_unix":     idToken.Expiry.Unix(),
	})

	return &auth.Identity{
		Provider:       providerName,
		ProviderUserID: sub,
		Email:          email,
		EmailVerified:  verified,
		Profile:        profile,
	}, token.AccessToken, nil
}
