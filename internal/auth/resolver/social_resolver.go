package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"item-service/internal/auth"
	"item-service/internal/store"
)

// ErrAppNotConfigured signals a missing social_apps row for the provider.
// There is no fallback; the operator has to seed the provider credentials.
var ErrAppNotConfigured = errors.New("provider app not configured")

// SocialResolver resolves identities against the store. The steps run
// sequentially without a wrapping transaction: a failure partway through
// (e.g. missing provider app) leaves the already-upserted user and email
// records in place.
type SocialResolver struct {
	users  store.UserStore
	social store.SocialStore
}

func NewSocialResolver(users store.UserStore, social store.SocialStore) *SocialResolver {
	return &SocialResolver{users: users, social: social}
}

func (r *SocialResolver) Resolve(
	ctx context.Context,
	identity *auth.Identity,
	accessToken string,
) (*store.User, error) {

	if identity == nil {
		return nil, errors.New("identity is nil")
	}

	// 1. Resolve the user. The username is derived from the local part
	// of the email and only applies if the user is created here.
	user, err := r.users.UpsertUser(ctx, identity.Email, usernameFromEmail(identity.Email))
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	// 2. After a successful login the address is verified and primary,
	// whether the record existed before or not.
	if err := r.users.UpsertEmailAddress(ctx, user.ID, identity.Email, true, true); err != nil {
		return nil, fmt.Errorf("mark email verified: %w", err)
	}

	// 3. Provider application config must exist.
	app, err := r.social.GetApp(ctx, identity.Provider)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAppNotConfigured
		}
		return nil, fmt.Errorf("load provider app: %w", err)
	}

	// 4. One account per (user, provider); the profile payload is
	// refreshed on every login, the uid stays as created.
	account, err := r.social.UpsertAccount(
		ctx,
		user.ID,
		identity.Provider,
		identity.ProviderUserID,
		identity.Profile,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert social account: %w", err)
	}

	// 5. Latest access token wins.
	if err := r.social.UpsertToken(ctx, account.ID, app.ID, accessToken); err != nil {
		return nil, fmt.Errorf("upsert social token: %w", err)
	}

	return user, nil
}

func usernameFromEmail(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
