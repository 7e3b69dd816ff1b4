package cache

import (
	"context"
	"errors"
	"time"

	"github.com/aq2208/gorder-storefront/internal/usecase"
	"github.com/redis/go-redis/v9"
)

type RedisIdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisIdempotencyStore(rdb *redis.Client, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{rdb: rdb, ttl: ttl}
}

func lockKey(scope, key string) string { return "idemp:" + scope + ":" + key }

func mapKey(scope, key string) string { return "idemp:map:" + scope + ":" + key }

func (s *RedisIdempotencyStore) TryLock(ctx context.Context, scope, key string) (bool, error) {
	return s.rdb.SetNX(ctx, lockKey(scope, key), "1", s.ttl).Result()
}

func (s *RedisIdempotencyStore) Remember(ctx context.Context, scope, key, value string) error {
	return s.rdb.Set(ctx, mapKey(scope, key), value, s.ttl).Err()
}

func (s *RedisIdempotencyStore) Recall(ctx context.Context, scope, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, mapKey(scope, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *RedisIdempotencyStore) Forget(ctx context.Context, scope, key string) error {
	return s.rdb.Del(ctx, lockKey(scope, key), mapKey(scope, key)).Err()
}

var _ usecase.IdempotencyStore = (*RedisIdempotencyStore)(nil)
