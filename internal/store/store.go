package store

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("store: not found")

type User struct {
	ID        string
	Email     string
	Username  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EmailAddress tracks verified/primary status for one of a user's addresses.
type EmailAddress struct {
	ID       string
	UserID   string
	Email    string
	Verified bool
	Primary  bool
}

// SocialApp holds externally provisioned provider credentials. Rows are
// seeded by the operator; the login flow only reads them.
type SocialApp struct {
	ID           string
	Provider     string
	ClientID     string
	ClientSecret string
}

type SocialAccount struct {
	ID        string
	UserID    string
	Provider  string
	UID       string
	ExtraData map[string]any
}

type SocialToken struct {
	ID        string
	AccountID string
	AppID     string
	Token     string
}

type Credential struct {
	ID           string
	UserID       string
	PasswordHash string
	HashVersion  string
}

// UserStore resolves and persists users and their email address records.
type UserStore interface {
	// GetUserByEmail looks a user up by email, case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// UpsertUser creates the user if absent and returns the stored row
	// either way. The username is only applied at creation; concurrent
	// calls for the same email converge on a single row.
	UpsertUser(ctx context.Context, email, username string) (*User, error)

	// UpsertEmailAddress creates or updates the address record for
	// (user, email), overwriting the verified/primary flags.
	UpsertEmailAddress(ctx context.Context, userID, email string, verified, primary bool) error
}

// SocialStore persists provider identities and their access tokens.
type SocialStore interface {
	// GetApp returns the provider application config, or ErrNotFound.
	GetApp(ctx context.Context, provider string) (*SocialApp, error)

	// GetAccount returns the social account for (user, provider), or ErrNotFound.
	GetAccount(ctx context.Context, userID, provider string) (*SocialAccount, error)

	// UpsertAccount creates the account for (user, provider) if absent.
	// The uid is set at creation and kept on later logins; extra_data is
	// overwritten every time.
	UpsertAccount(ctx context.Context, userID, provider, uid string, extra map[string]any) (*SocialAccount, error)

	// UpsertToken overwrites the token stored for (account, app).
	UpsertToken(ctx context.Context, accountID, appID, token string) error
}

// CredentialStore persists password credentials.
type CredentialStore interface {
	GetCredentialByEmail(ctx context.Context, email string) (*User, *Credential, error)
	HasCredential(ctx context.Context, userID string) (bool, error)
	CreateCredential(ctx context.Context, userID, passwordHash, hashVersion string) error
}
