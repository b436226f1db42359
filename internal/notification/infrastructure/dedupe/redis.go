package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces every dedupe key.
const KeyPrefix = "preflight:notify:"

// RedisDeduplicator claims keys with SET NX so that scan instances running
// side by side suppress each other's duplicates.
type RedisDeduplicator struct {
	client *redis.Client
	window time.Duration
}

func NewRedisDeduplicator(client *redis.Client, window time.Duration) *RedisDeduplicator {
	return &RedisDeduplicator{client: client, window: window}
}

func (d *RedisDeduplicator) namespaceKey(key string) string {
	return KeyPrefix + key
}

// Allow claims key for the dedupe window. The claim expires on its own.
func (d *RedisDeduplicator) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.namespaceKey(key), time.Now().UTC().Format(time.RFC3339), d.window).Result()
	if err != nil {
		return false, fmt.Errorf("claim notification key: %w", err)
	}
	return ok, nil
}

// Release drops a claim so the next Allow for key succeeds.
func (d *RedisDeduplicator) Release(ctx context.Context, key string) error {
	return d.client.Del(ctx, d.namespaceKey(key)).Err()
}
