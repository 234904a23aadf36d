package storage

import (
	"context"
	"time"

	rds "ChatGate/service/storage/redis"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// presence key: im:presence:<user>
// Value is a constant marker; the TTL bounds how long a crashed gateway can
// leave a user looking online.
func presenceKey(user string) string { return "im:presence:" + user }

// PresenceOnline marks the user online and renews the TTL. No-op without Redis.
func PresenceOnline(ctx context.Context, user string, ttl time.Duration) error {
	rdb := rds.GetRedis()
	if rdb == nil {
		return nil
	}
	return rdb.Set(ctx, presenceKey(user), "1", ttl).Err()
}

// PresenceOffline marks the user offline (deletes the key). No-op without Redis.
func PresenceOffline(ctx context.Context, user string) error {
	rdb := rds.GetRedis()
	if rdb == nil {
		return nil
	}
	return rdb.Del(ctx, presenceKey(user)).Err()
}

// PresenceLookup reports whether the user currently holds a presence key.
func PresenceLookup(ctx context.Context, user string) (bool, error) {
	rdb := rds.GetRedis()
	if rdb == nil {
		return false, nil
	}
	_, err := rdb.Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
