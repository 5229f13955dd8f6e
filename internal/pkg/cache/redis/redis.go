package redisCache

import (
	"context"
	"errors"
	"time"

	"aws-sqs-messaging-template/internal/pkg/cache"

	"github.com/redis/go-redis/v9"
)

// RedisRepository implements the cache.Client interface using Redis as backend.
type RedisRepository struct {
	Client *redis.Client // Redis client instance
}

var _ cache.Client = (*RedisRepository)(nil)

// NewClient creates a new redis client
func NewClient(addr string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:       addr,
		Password:   "",
		DB:         db,
		MaxRetries: 10,
	})
}

// New wraps a redis client as a cache.Client.
func New(client *redis.Client) *RedisRepository {
	return &RedisRepository{Client: client}
}

// Get retrieves a value by key from Redis.
func (r *RedisRepository) Get(ctx context.Context, key string) (string, error) {
	v, err := r.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", cache.ErrMiss
	}
	return v, err
}

// Set sets a value with expiration in Redis.
func (r *RedisRepository) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return r.Client.Set(ctx, key, value, expiration).Err()
}

// Delete removes a key from Redis.
func (r *RedisRepository) Delete(ctx context.Context, key string) error {
	return r.Client.Del(ctx, key).Err()
}

// ScanPrefix retrieves all key-value pairs with the given prefix. Keys that
// expire between SCAN and GET are skipped.
func (r *RedisRepository) ScanPrefix(ctx context.Context, prefix string) (map[string]string, error) {
	result := make(map[string]string)
	iter := r.Client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		value, err := r.Client.Get(ctx, key).Result()
		if err != nil {
			continue
		}
		result[key] = value
	}
	return result, iter.Err()
}
