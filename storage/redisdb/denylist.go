// Package redisdb implements Redis-backed auth storage. The refresh-token
// denylist keys entries by jti with a TTL equal to the token's remaining
// lifetime, so Redis garbage-collects revocations the moment the token would
// have expired anyway.
package redisdb

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/authgate/auth"
)

const denylistPrefix = "auth:denylist:"

// Denylist records revoked refresh-token IDs in Redis.
type Denylist struct {
	client redis.UniversalClient
}

var _ auth.Denylist = (*Denylist)(nil)

// NewDenylist creates a denylist backed by the given Redis client.
func NewDenylist(client redis.UniversalClient) *Denylist {
	return &Denylist{client: client}
}

// Revoke marks the token ID as revoked until ttl elapses.
func (d *Denylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, denylistPrefix+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether the token ID has been revoked.
func (d *Denylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := d.client.Exists(ctx, denylistPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}
