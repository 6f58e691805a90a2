package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store over a shared redis deployment, required once the
// service runs more than one instance. Increments ride the redis INCR
// primitive so concurrent failed attempts never under count.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a Store backed by the supplied redis client.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

func (rs *RedisStore) key(key string) string {
	if rs.prefix == "" {
		return key
	}
	return rs.prefix + ":" + key
}

func (rs *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := rs.client.Get(ctx, rs.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (rs *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return rs.client.Set(ctx, rs.key(key), value, ttl).Err()
}

func (rs *RedisStore) Remove(ctx context.Context, key string) error {
	return rs.client.Del(ctx, rs.key(key)).Err()
}

func (rs *RedisStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := rs.client.Incr(ctx, rs.key(key)).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 && ttl > 0 {
		err = rs.client.PExpire(ctx, rs.key(key), ttl).Err()
		if err != nil {
			return count, err
		}
	}
	return count, nil
}

func (rs *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return rs.client.PExpire(ctx, rs.key(key), ttl).Err()
}
