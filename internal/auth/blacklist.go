package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistKeyPrefix = "blacklist:access:"

// Blacklist revokes individual access tokens before their natural expiry.
// It is independent of the SessionRegistry: the registry governs refresh
// tokens and lives for days, blacklist entries shadow a single access
// token for the minutes it has left.
type Blacklist struct {
	rdb *redis.Client
}

func NewBlacklist(rdb *redis.Client) *Blacklist {
	return &Blacklist{rdb: rdb}
}

// Add records the exact token string as revoked.  ttl should be the
// token's remaining validity; after that Redis drops the entry on its own.
func (b *Blacklist) Add(ctx context.Context, token string, ttl time.Duration) error {
	if b.rdb == nil {
		return ErrStoreUnavailable
	}
	if ttl <= 0 {
		return nil // already expired, nothing to revoke
	}
	return b.rdb.Set(ctx, blacklistKeyPrefix+token, "1", ttl).Err()
}

// Contains reports whether the exact token string has been revoked.
func (b *Blacklist) Contains(ctx context.Context, token string) (bool, error) {
	if b.rdb == nil {
		return false, ErrStoreUnavailable
	}
	n, err := b.rdb.Exists(ctx, blacklistKeyPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
