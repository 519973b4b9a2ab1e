package redis

import (
	"context"
	"encoding/json"
	"time"
)

// Cache is a small JSON cache on top of the shared client. Every method is a
// no-op when redis is not available, so callers never have to care.
type Cache struct{}

func NewCache() *Cache {
	return &Cache{}
}

// Get loads a cached value into dest. Returns false on miss or when redis is
// disabled.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if RedisClient == nil {
		return false, nil
	}

	raw, err := RedisClient.Get(ctx, key).Bytes()
	if err != nil {
		return false, nil
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if RedisClient == nil {
		return nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return RedisClient.Set(ctx, key, raw, ttl).Err()
}

// GetVersion returns the current version counter for a key, 0 when unset or
// redis is disabled.
func (c *Cache) GetVersion(ctx context.Context, key string) int64 {
	if RedisClient == nil {
		return 0
	}

	v, err := RedisClient.Get(ctx, key).Int64()
	if err != nil {
		return 0
	}
	return v
}

// IncrementVersion bumps the version counter, invalidating every cache entry
// built on the previous version.
func (c *Cache) IncrementVersion(ctx context.Context, key string) {
	if RedisClient == nil {
		return
	}
	RedisClient.Incr(ctx, key)
}
