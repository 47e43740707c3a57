package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"item-service/internal/db"
)

// Postgres implements the store interfaces on a single database handle.
type Postgres struct {
	db *db.DB
}

func NewPostgres(db *db.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := p.db.QueryRowContext(ctx, `
		SELECT id, email, username, created_at, updated_at
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email).Scan(&u.ID, &u.Email, &u.Username, &u.CreatedAt, &u.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (p *Postgres) UpsertUser(ctx context.Context, email, username string) (*User, error) {
	// DO UPDATE instead of DO NOTHING so RETURNING yields the existing
	// row when two logins for the same email race on creation.
	var u User
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO users (email, username)
		VALUES ($1, $2)
		ON CONFLICT (LOWER(email)) DO UPDATE
			SET updated_at = NOW()
		RETURNING id, email, username, created_at, updated_at
	`, email, username).Scan(&u.ID, &u.Email, &u.Username, &u.CreatedAt, &u.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return &u, nil
}

func (p *Postgres) UpsertEmailAddress(ctx context.Context, userID, email string, verified, primary bool) error {
	// Email matching is case-insensitive everywhere; the conflict target
	// has to be too, or a recased login would add a second row.
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO email_addresses (user_id, email, verified, "primary")
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, LOWER(email)) DO UPDATE
			SET verified = EXCLUDED.verified,
			    "primary" = EXCLUDED."primary",
			    updated_at = NOW()
	`, userID, email, verified, primary)

	if err != nil {
		return fmt.Errorf("upsert email address: %w", err)
	}
	return nil
}

func (p *Postgres) GetApp(ctx context.Context, provider string) (*SocialApp, error) {
	var a SocialApp
	err := p.db.QueryRowContext(ctx, `
		SELECT id, provider, client_id, client_secret
		FROM social_apps
		WHERE provider = $1
	`, provider).Scan(&a.ID, &a.Provider, &a.ClientID, &a.ClientSecret)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (p *Postgres) GetAccount(ctx context.Context, userID, provider string) (*SocialAccount, error) {
	var (
		a   SocialAccount
		raw []byte
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT id, user_id, provider, uid, extra_data
		FROM social_accounts
		WHERE user_id = $1 AND provider = $2
	`, userID, provider).Scan(&a.ID, &a.UserID, &a.Provider, &a.UID, &raw)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &a.ExtraData); err != nil {
			return nil, fmt.Errorf("decode extra_data: %w", err)
		}
	}
	return &a, nil
}

func (p *Postgres) UpsertAccount(ctx context.Context, userID, provider, uid string, extra map[string]any) (*SocialAccount, error) {
	raw, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("encode extra_data: %w", err)
	}

	// uid is intentionally absent from the update list: it is fixed at
	// creation, only the profile payload follows later logins.
	var a SocialAccount
	err = p.db.QueryRowContext(ctx, `
		INSERT INTO social_accounts (user_id, provider, uid, extra_data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, provider) DO UPDATE
			SET extra_data = EXCLUDED.extra_data,
			    updated_at = NOW()
		RETURNING id, user_id, provider, uid
	`, userID, provider, uid, raw).Scan(&a.ID, &a.UserID, &a.Provider, &a.UID)

	if err != nil {
		return nil, fmt.Errorf("upsert social account: %w", err)
	}
	a.ExtraData = extra
	return &a, nil
}

func (p *Postgres) UpsertToken(ctx context.Context, accountID, appID, token string) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO social_tokens (account_id, app_id, token)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id, app_id) DO UPDATE
			SET token = EXCLUDED.token,
			    updated_at = NOW()
	`, accountID, appID, token)

	if err != nil {
		return fmt.Errorf("upsert social token: %w", err)
	}
	return nil
}

func (p *Postgres) GetCredentialByEmail(ctx context.Context, email string) (*User, *Credential, error) {
	var (
		u User
		c Credential
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.username, c.id, c.user_id, c.password_hash, c.hash_version
		FROM users u
		JOIN credentials c ON c.user_id = u.id
		WHERE LOWER(u.email) = LOWER($1)
	`, email).Scan(&u.ID, &u.Email, &u.Username, &c.ID, &c.UserID, &c.PasswordHash, &c.HashVersion)

	if err == sql.ErrNoRows {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return &u, &c, nil
}

func (p *Postgres) HasCredential(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := p.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM credentials WHERE user_id = $1
		)
	`, userID).Scan(&exists)
	return exists, err
}

func (p *Postgres) CreateCredential(ctx context.Context, userID, passwordHash, hashVersion string) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO credentials (user_id, password_hash, hash_version)
		VALUES ($1, $2, $3)
	`, userID, passwordHash, hashVersion)
	return err
}
