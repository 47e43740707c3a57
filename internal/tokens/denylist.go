package tokens

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Denylist records revoked refresh token ids in Redis. Entries expire
// together with the token they revoke, so the set stays bounded.
type Denylist struct {
	client *redis.Client
	prefix string
}

func NewDenylist(client *redis.Client) *Denylist {
	return &Denylist{
		client: client,
		prefix: "revoked:",
	}
}

func (d *Denylist) key(jti string) string {
	return d.prefix + jti
}

func (d *Denylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, d.key(jti), "1", ttl).Err()
}

func (d *Denylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	_, err := d.client.Get(ctx, d.key(jti)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
