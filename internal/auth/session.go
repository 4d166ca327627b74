package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable is returned when no Redis client was configured.
// Auth flows cannot degrade without their session state, so they surface
// this as a server error instead of failing open.
var ErrStoreUnavailable = errors.New("session store unavailable")

const sessionKeyPrefix = "refresh_token:"

// SessionRegistry tracks the single valid refresh token per user under
// refresh_token:{user_id}.  Every write is an unconditional SET or DEL, so
// concurrent logins and refreshes resolve last-writer-wins: the rotated-out
// token stops validating no matter which writer lost the race.
type SessionRegistry struct {
	rdb *redis.Client
}

func NewSessionRegistry(rdb *redis.Client) *SessionRegistry {
	return &SessionRegistry{rdb: rdb}
}

// Store records token as the user's only valid refresh token, replacing
// whatever was there.  ttl should be the remaining refresh-token lifetime.
func (r *SessionRegistry) Store(ctx context.Context, userID, token string, ttl time.Duration) error {
	if r.rdb == nil {
		return ErrStoreUnavailable
	}
	return r.rdb.Set(ctx, sessionKeyPrefix+userID, token, ttl).Err()
}

// Validate reports whether presented is exactly the stored refresh token
// for the user.  A missing key is a plain false, not an error.
func (r *SessionRegistry) Validate(ctx context.Context, userID, presented string) (bool, error) {
	if r.rdb == nil {
		return false, ErrStoreUnavailable
	}
	stored, err := r.rdb.Get(ctx, sessionKeyPrefix+userID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return stored == presented, nil
}

// Revoke deletes the user's session key.  Deleting a nonexistent key is
// not an error; logout stays idempotent.
func (r *SessionRegistry) Revoke(ctx context.Context, userID string) error {
	if r.rdb == nil {
		return ErrStoreUnavailable
	}
	return r.rdb.Del(ctx, sessionKeyPrefix+userID).Err()
}
