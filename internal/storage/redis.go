package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisTimeout = 2 * time.Second

// RedisBackend stores documents as plain redis strings under a key prefix.
type RedisBackend struct {
	client  redis.UniversalClient
	prefix  string
	timeout time.Duration
}

// NewRedisBackend uses client for storage. Every key is stored as prefix+key.
func NewRedisBackend(client redis.UniversalClient, prefix string) *RedisBackend {
	return &RedisBackend{client: client, prefix: prefix, timeout: defaultRedisTimeout}
}

func (r *RedisBackend) Get(key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	v, err := r.client.Get(ctx, r.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return v, nil
}

func (r *RedisBackend) Put(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	return r.client.Set(ctx, r.prefix+key, value, 0).Err()
}
