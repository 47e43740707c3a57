package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"item-service/internal/auth"
	"item-service/internal/auth/credentials"
	"item-service/internal/auth/provider"
	"item-service/internal/auth/resolver"
	"item-service/internal/store"
	"item-service/internal/tokens"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider stands in for the Google provider: it accepts exactly one
// access token and returns a canned identity for it.
type fakeProvider struct {
	token    string
	identity *auth.Identity
	err      error
}

func (f *fakeProvider) Name() string { return "google" }

func (f *fakeProvider) VerifyAccessToken(_ context.Context, accessToken string) (*auth.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	if accessToken != f.token {
		return nil, &provider.UpstreamError{
			Status: http.StatusUnauthorized,
			Body:   `{"error": "invalid_token"}`,
		}
	}
	cp := *f.identity
	return &cp, nil
}

func (f *fakeProvider) AuthCodeURL(state, codeChallenge string) string {
	return "https://provider.example/auth?state=" + state
}

func (f *fakeProvider) ExchangeCode(_ context.Context, code, _ string) (*auth.Identity, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	if code != "good-code" {
		return nil, "", errors.New("invalid code")
	}
	cp := *f.identity
	return &cp, f.token, nil
}

type testEnv struct {
	router *gin.Engine
	mem    *store.Memory
	issuer *tokens.Issuer
	google *fakeProvider
}

func newTestEnv(t *testing.T, seedApp bool) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	issuer := tokens.NewIssuer(
		"test-secret",
		"item-service",
		15*time.Minute,
		7*24*time.Hour,
		tokens.NewDenylist(client),
	)

	mem := store.NewMemory()
	if seedApp {
		mem.SeedApp("google", "client-id", "client-secret")
	}

	google := &fakeProvider{
		token: "tok123",
		identity: &auth.Identity{
			Provider:       "google",
			ProviderUserID: "999",
			Email:          "a@b.com",
			EmailVerified:  true,
			Profile: map[string]any{
				"sub":   "999",
				"email": "a@b.com",
			},
		},
	}

	h := NewHandler(
		provider.NewRegistry(google),
		resolver.NewSocialResolver(mem, mem),
		issuer,
		credentials.NewService(mem, mem),
	)

	router := gin.New()
	h.RegisterRoutes(router)

	return &testEnv{router: router, mem: mem, issuer: issuer, google: google}
}

func (e *testEnv) postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestGoogleLogin(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.postJSON("/api/auth/google/", `{"access_token": "tok123"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp loginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "a@b.com", resp.User.Email)
	assert.Equal(t, "a", resp.User.Username)
	require.NotEmpty(t, resp.Tokens.Access)
	require.NotEmpty(t, resp.Tokens.Refresh)

	claims, err := env.issuer.VerifyAccess(resp.Tokens.Access)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", claims.Email)

	user, err := env.mem.GetUserByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	account, err := env.mem.GetAccount(context.Background(), user.ID, "google")
	require.NoError(t, err)
	assert.Equal(t, "999", account.UID)
}

func TestGoogleLoginMissingToken(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.postJSON("/api/auth/google/", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "no access token provided", decodeBody(t, w)["error"])
	assert.Equal(t, 0, env.mem.UserCount())
}

func TestGoogleLoginMalformedBody(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.postJSON("/api/auth/google/", `{"access_token": 42}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, env.mem.UserCount())
}

func TestGoogleLoginRejectedByProvider(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.postJSON("/api/auth/google/", `{"access_token": "wrong"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "failed to verify token with provider", body["error"])
	assert.Contains(t, body["details"], "invalid_token")
	assert.Equal(t, 0, env.mem.UserCount())
}

func TestGoogleLoginEmailMissing(t *testing.T) {
	env := newTestEnv(t, true)
	env.google.err = provider.ErrEmailMissing

	w := env.postJSON("/api/auth/google/", `{"access_token": "tok123"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email not provided", decodeBody(t, w)["error"])
	assert.Equal(t, 0, env.mem.UserCount())
}

func TestGoogleLoginAppNotConfigured(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.postJSON("/api/auth/google/", `{"access_token": "tok123"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "provider app not configured", decodeBody(t, w)["error"])

	// the user row survives, the social rows are never written
	assert.Equal(t, 1, env.mem.UserCount())
	assert.Equal(t, 0, env.mem.AccountCount())
}

func TestGoogleLoginIdempotent(t *testing.T) {
	env := newTestEnv(t, true)

	first := env.postJSON("/api/auth/google/", `{"access_token": "tok123"}`)
	require.Equal(t, http.StatusOK, first.Code)
	second := env.postJSON("/api/auth/google/", `{"access_token": "tok123"}`)
	require.Equal(t, http.StatusOK, second.Code)

	assert.Equal(t, 1, env.mem.UserCount())
	assert.Equal(t, 1, env.mem.AccountCount())

	user, err := env.mem.GetUserByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Len(t, env.mem.EmailAddresses(user.ID), 1)
}

func TestCSRFToken(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.get("/api/auth/csrf/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	token, ok := decodeBody(t, w)["csrfToken"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "csrftoken", cookies[0].Name)
	assert.Equal(t, token, cookies[0].Value)
	assert.False(t, cookies[0].HttpOnly)

	// each call mints a fresh token
	next := env.get("/api/auth/csrf/")
	require.Equal(t, http.StatusOK, next.Code)
	assert.NotEqual(t, token, decodeBody(t, next)["csrfToken"])
}

func TestRefresh(t *testing.T) {
	env := newTestEnv(t, true)

	login := env.postJSON("/api/auth/google/", `{"access_token": "tok123"}`)
	require.Equal(t, http.StatusOK, login.Code)
	var resp loginResponse
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &resp))

	w := env.postJSON("/api/auth/token/refresh/", `{"refresh": "`+resp.Tokens.Refresh+`"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var pair tokens.Pair
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pair))
	require.NotEmpty(t, pair.Access)
	_, err := env.issuer.VerifyAccess(pair.Access)
	assert.NoError(t, err)

	// the rotated-out token is gone
	replay := env.postJSON("/api/auth/token/refresh/", `{"refresh": "`+resp.Tokens.Refresh+`"}`)
	assert.Equal(t, http.StatusUnauthorized, replay.Code)
}

func TestRefreshMissingToken(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.postJSON("/api/auth/token/refresh/", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "no refresh token provided", decodeBody(t, w)["error"])
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, true)

	login := env.postJSON("/api/auth/google/", `{"access_token": "tok123"}`)
	require.Equal(t, http.StatusOK, login.Code)
	var resp loginResponse
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &resp))

	w := env.postJSON("/api/auth/logout/", `{"refresh": "`+resp.Tokens.Refresh+`"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)

	refresh := env.postJSON("/api/auth/token/refresh/", `{"refresh": "`+resp.Tokens.Refresh+`"}`)
	assert.Equal(t, http.StatusUnauthorized, refresh.Code)

	// logout without a token is still a 204
	empty := env.postJSON("/api/auth/logout/", `{}`)
	assert.Equal(t, http.StatusNoContent, empty.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.postJSON("/api/auth/registration/", `{"email": "new@b.com", "password": "hunter22!"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp loginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "new@b.com", resp.User.Email)
	assert.Equal(t, "new", resp.User.Username)
	assert.NotEmpty(t, resp.Tokens.Access)

	dup := env.postJSON("/api/auth/registration/", `{"email": "new@b.com", "password": "hunter22!"}`)
	assert.Equal(t, http.StatusConflict, dup.Code)

	short := env.postJSON("/api/auth/registration/", `{"email": "other@b.com", "password": "short"}`)
	assert.Equal(t, http.StatusBadRequest, short.Code)
	assert.Equal(t, "password too short", decodeBody(t, short)["error"])

	login := env.postJSON("/api/auth/login/", `{"email": "new@b.com", "password": "hunter22!"}`)
	assert.Equal(t, http.StatusOK, login.Code)

	wrong := env.postJSON("/api/auth/login/", `{"email": "new@b.com", "password": "nope-nope"}`)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, "invalid credentials", decodeBody(t, wrong)["error"])
}

func TestRedirectLogin(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.get("/oauth/login/google")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "https://provider.example/auth?state=")
	// state and pkce cookies are parked for the callback
	assert.Len(t, w.Result().Cookies(), 2)

	unknown := env.get("/oauth/login/github")
	assert.Equal(t, http.StatusBadRequest, unknown.Code)
}

func TestRedirectCallback(t *testing.T) {
	env := newTestEnv(t, true)

	start := env.get("/oauth/login/google")
	require.Equal(t, http.StatusFound, start.Code)

	loc := start.Header().Get("Location")
	state := loc[strings.Index(loc, "state=")+len("state="):]

	req := httptest.NewRequest(http.MethodGet, "/oauth/callback/google?code=good-code&state="+state, nil)
	for _, c := range start.Result().Cookies() {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp loginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "a@b.com", resp.User.Email)
	assert.Equal(t, 1, env.mem.UserCount())
}

func TestRedirectCallbackBadState(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.get("/oauth/callback/google?code=good-code&state=forged")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, env.mem.UserCount())
}
