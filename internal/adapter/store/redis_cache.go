package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nik-ti/image-finder/internal/domain/entity"
)

const cacheKeyPrefix = "imgfinder:result:"

// RedisCache persists resolved results by derived key. SET gives the
// last-write-wins upsert the pipeline relies on; the TTL is the retention
// window, so expiry replaces a separate cleanup pass.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (r *RedisCache) Get(ctx context.Context, key string) (*entity.CacheEntry, error) {
	val, err := r.client.Get(ctx, cacheKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entry entity.CacheEntry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, entry entity.CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, cacheKeyPrefix+key, data, r.ttl).Err()
}
