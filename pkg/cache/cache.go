// Package cache wraps the shared Redis client.
//
// All helpers degrade gracefully: when Redis is unreachable the client is
// left nil and Get/Set/Del become no-ops, so a cache outage never takes the
// shop down.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vendora/vendora/config"
)

var RDB *redis.Client

// Connect initialises the Redis client and verifies the connection with a ping.
func Connect(ctx context.Context) error {
	RDB = redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       0,
	})

	if err := RDB.Ping(ctx).Err(); err != nil {
		RDB = nil // mark as unavailable so helpers no-op safely
		return fmt.Errorf("cache: redis ping: %w", err)
	}
	return nil
}

// Get retrieves a cached value by key and unmarshals into dest.
// Returns true on a cache hit, false on miss or error.
func Get(ctx context.Context, key string, dest interface{}) bool {
	if RDB == nil {
		return false
	}

	val, err := RDB.Get(ctx, key).Result()
	if err != nil {
		return false
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false
	}

	return true
}

// Set stores value in Redis under key for the given TTL.
func Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if RDB == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return RDB.Set(ctx, key, data, ttl).Err()
}

// Del removes one or more keys from Redis.
func Del(ctx context.Context, keys ...string) error {
	if RDB == nil {
		return nil
	}
	return RDB.Del(ctx, keys...).Err()
}

// DelPrefix removes every key matching prefix* (used for list-cache
// invalidation on catalog writes).
func DelPrefix(ctx context.Context, prefix string) error {
	if RDB == nil {
		return nil
	}

	iter := RDB.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := RDB.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Increment atomically increments key, setting its expiry on first use.
// The second return is false when Redis is unavailable.
func Increment(ctx context.Context, key string, ttl time.Duration) (int64, bool) {
	if RDB == nil {
		return 0, false
	}

	count, err := RDB.Incr(ctx, key).Result()
	if err != nil {
		return 0, false
	}
	if count == 1 {
		RDB.Expire(ctx, key, ttl)
	}
	return count, true
}
