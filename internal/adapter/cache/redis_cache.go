package cache

import (
	"context"
	"errors"
	"time"

	"github.com/aq2208/gorder-storefront/internal/usecase"
	"github.com/redis/go-redis/v9"
)

var ErrMiss = errors.New("cache miss")

// RedisCache keeps the latest known status of each order.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func statusKey(orderID string) string { return "order:status:" + orderID }

func (r RedisCache) SetStatus(ctx context.Context, orderID string, status string) error {
	return r.rdb.Set(ctx, statusKey(orderID), status, r.ttl).Err()
}

func (r RedisCache) GetStatus(ctx context.Context, orderID string) (string, error) {
	val, err := r.rdb.Get(ctx, statusKey(orderID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return val, err
}

var _ usecase.OrderCache = (*RedisCache)(nil)
