package store

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-memory implementation of the store interfaces. It backs
// tests and single-process demo deployments; the Postgres store is the
// production path.
type Memory struct {
	mu       sync.Mutex
	users    map[string]*User // keyed by lowercased email
	emails   map[string]*EmailAddress
	apps     map[string]*SocialApp // keyed by provider
	accounts map[string]*SocialAccount
	tokens   map[string]*SocialToken
	creds    map[string]*Credential // keyed by user id
}

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]*User),
		emails:   make(map[string]*EmailAddress),
		apps:     make(map[string]*SocialApp),
		accounts: make(map[string]*SocialAccount),
		tokens:   make(map[string]*SocialToken),
		creds:    make(map[string]*Credential),
	}
}

// SeedApp registers a provider application config.
func (m *Memory) SeedApp(provider, clientID, clientSecret string) *SocialApp {
	m.mu.Lock()
	defer m.mu.Unlock()
	app := &SocialApp{
		ID:           uuid.NewString(),
		Provider:     provider,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}
	m.apps[provider] = app
	return app
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) UpsertUser(_ context.Context, email, username string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(email)
	if u, ok := m.users[key]; ok {
		cp := *u
		return &cp, nil
	}
	u := &User{
		ID:       uuid.NewString(),
		Email:    email,
		Username: username,
	}
	m.users[key] = u
	cp := *u
	return &cp, nil
}

func (m *Memory) UpsertEmailAddress(_ context.Context, userID, email string, verified, primary bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := userID + "|" + strings.ToLower(email)
	if e, ok := m.emails[key]; ok {
		e.Verified = verified
		e.Primary = primary
		return nil
	}
	m.emails[key] = &EmailAddress{
		ID:       uuid.NewString(),
		UserID:   userID,
		Email:    email,
		Verified: verified,
		Primary:  primary,
	}
	return nil
}

// EmailAddresses returns the address records stored for a user.
func (m *Memory) EmailAddresses(userID string) []EmailAddress {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []EmailAddress
	for _, e := range m.emails {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	return out
}

func (m *Memory) GetApp(_ context.Context, provider string) (*SocialApp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[provider]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *Memory) GetAccount(_ context.Context, userID, provider string) (*SocialAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[userID+"|"+provider]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *Memory) UpsertAccount(_ context.Context, userID, provider, uid string, extra map[string]any) (*SocialAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := userID + "|" + provider
	if a, ok := m.accounts[key]; ok {
		a.ExtraData = extra
		cp := *a
		return &cp, nil
	}
	a := &SocialAccount{
		ID:        uuid.NewString(),
		UserID:    userID,
		Provider:  provider,
		UID:       uid,
		ExtraData: extra,
	}
	m.accounts[key] = a
	cp := *a
	return &cp, nil
}

func (m *Memory) UpsertToken(_ context.Context, accountID, appID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := accountID + "|" + appID
	if t, ok := m.tokens[key]; ok {
		t.Token = token
		return nil
	}
	m.tokens[key] = &SocialToken{
		ID:        uuid.NewString(),
		AccountID: accountID,
		AppID:     appID,
		Token:     token,
	}
	return nil
}

// TokenFor returns the stored token for (account, app), or nil.
func (m *Memory) TokenFor(accountID, appID string) *SocialToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[accountID+"|"+appID]
	if !ok {
		return nil
	}
	cp := *t
	return &cp
}

// UserCount reports how many users are stored.
func (m *Memory) UserCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// AccountCount reports how many social accounts are stored.
func (m *Memory) AccountCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.accounts)
}

func (m *Memory) GetCredentialByEmail(_ context.Context, email string) (*User, *Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, nil, ErrNotFound
	}
	c, ok := m.creds[u.ID]
	if !ok {
		return nil, nil, ErrNotFound
	}
	ucp, ccp := *u, *c
	return &ucp, &ccp, nil
}

func (m *Memory) HasCredential(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.creds[userID]
	return ok, nil
}

func (m *Memory) CreateCredential(_ context.Context, userID, passwordHash, hashVersion string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds[userID] = &Credential{
		ID:           uuid.NewString(),
		UserID:       userID,
		PasswordHash: passwordHash,
		HashVersion:  hashVersion,
	}
	return nil
}
