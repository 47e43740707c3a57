package resolver

import (
	"context"

	"item-service/internal/auth"
	"item-service/internal/store"
)

// Resolver determines which internal user an external identity belongs to
// and records the identity's provider account and token. It is the ONLY
// place where identity-to-user mapping logic lives.
type Resolver interface {
	Resolve(
		ctx context.Context,
		identity *auth.Identity,
		accessToken string,
	) (*store.User, error)
}
