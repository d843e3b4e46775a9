package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/aq2208/order-api/internal/usecase"
	"github.com/redis/go-redis/v9"
)

// RedisCache keeps order status next to its owner so reads can be authorized without the store.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (r RedisCache) SetStatus(ctx context.Context, orderID string, st usecase.CachedStatus) error {
	key := statusKey(orderID)
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, "user", st.UserID, "status", st.Status)
		if r.ttl > 0 {
			p.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set status failed: %w", err)
	}
	return nil
}

func (r RedisCache) GetStatus(ctx context.Context, orderID string) (usecase.CachedStatus, bool, error) {
	vals, err := r.rdb.HGetAll(ctx, statusKey(orderID)).Result()
	if err != nil {
		return usecase.CachedStatus{}, false, fmt.Errorf("redis get status failed: %w", err)
	}
	if vals["status"] == "" {
		return usecase.CachedStatus{}, false, nil
	}
	return usecase.CachedStatus{UserID: vals["user"], Status: vals["status"]}, true, nil
}

func statusKey(orderID string) string {
	return "order:status:" + orderID
}

var _ usecase.OrderCache = (*RedisCache)(nil)
