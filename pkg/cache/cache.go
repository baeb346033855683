// Package cache stores JSON-encoded values in Redis, falling back to an
// in-process store when Redis is not connected (local runs and tests).
// Sessions and the cached category list both live here.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shashiranjanraj/wellness360/config"
	"github.com/shashiranjanraj/wellness360/pkg/metrics"
)

var RDB *redis.Client

var mem = newMemoryStore()

// Connect initialises the Redis client and verifies it with a ping. On
// failure RDB stays nil and the memory store serves all calls.
func Connect(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       0,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		RDB = nil
		return fmt.Errorf("cache: redis ping: %w", err)
	}
	RDB = client
	return nil
}

// Driver names the active backend.
func Driver() string {
	if RDB != nil {
		return "redis"
	}
	return "memory"
}

// Ping checks the active backend.
func Ping(ctx context.Context) error {
	if RDB == nil {
		return nil
	}
	return RDB.Ping(ctx).Err()
}

// Get unmarshals the value under key into dest. It reports a hit.
func Get(ctx context.Context, key string, dest any) bool {
	raw, ok := getRaw(ctx, key)
	if !ok {
		metrics.CacheMisses.WithLabelValues(Driver()).Inc()
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		metrics.CacheMisses.WithLabelValues(Driver()).Inc()
		return false
	}
	metrics.CacheHits.WithLabelValues(Driver()).Inc()
	return true
}

func getRaw(ctx context.Context, key string) ([]byte, bool) {
	if RDB == nil {
		return mem.get(key)
	}
	val, err := RDB.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

// Set stores value under key for ttl.
func Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", key, err)
	}
	if RDB == nil {
		mem.set(key, data, ttl)
		return nil
	}
	return RDB.Set(ctx, key, data, ttl).Err()
}

// Del removes keys.
func Del(ctx context.Context, keys ...string) error {
	if RDB == nil {
		for _, k := range keys {
			mem.del(k)
		}
		return nil
	}
	return RDB.Del(ctx, keys...).Err()
}

// Flush empties the memory store. Redis is left untouched.
func Flush() { mem.flush() }
