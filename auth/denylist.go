package auth

import (
	"context"
	"sync"
	"time"
)

// MemoryDenylist is an in-process Denylist for tests and single-instance
// development setups. Expired entries are pruned lazily on access.
type MemoryDenylist struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

// NewMemoryDenylist creates an empty in-memory denylist.
func NewMemoryDenylist() *MemoryDenylist {
	return &MemoryDenylist{entries: make(map[string]time.Time)}
}

// Revoke records the jti as revoked for the given ttl.
func (d *MemoryDenylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[jti] = time.Now().Add(ttl)
	return nil
}

// IsRevoked reports whether the jti is currently revoked.
func (d *MemoryDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	expiresAt, ok := d.entries[jti]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiresAt) {
		delete(d.entries, jti)
		return false, nil
	}
	return true, nil
}

var _ Denylist = (*MemoryDenylist)(nil)
